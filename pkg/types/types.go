package types

// TotalKey is the reserved top-level key holding the global tick counter in the persisted record.
const TotalKey = "total_system_usage"

// UsageRecord holds the accumulated counters for one application.
type UsageRecord struct {
	TimeSpent int64  `json:"time_spent" yaml:"time_spent"`
	RAMUsage  uint64 `json:"ram_usage" yaml:"ram_usage"`
	DiskUsage uint64 `json:"disk_usage" yaml:"disk_usage"`
}

// NewUsageRecord is the only way an application entry comes into existence,
// so every record carries all three counters.
func NewUsageRecord(memBytes, diskBytes uint64) UsageRecord {
	return UsageRecord{TimeSpent: 1, RAMUsage: memBytes, DiskUsage: diskBytes}
}

// UsageTable maps application identifiers to their counters plus the global tick count.
type UsageTable struct {
	Apps             map[string]UsageRecord
	TotalSystemUsage int64
}

// NewUsageTable returns an empty table as used on first run.
func NewUsageTable() UsageTable {
	return UsageTable{Apps: make(map[string]UsageRecord)}
}

// Clone returns a deep copy so readers never observe later mutations.
func (t UsageTable) Clone() UsageTable {
	apps := make(map[string]UsageRecord, len(t.Apps))
	for name, rec := range t.Apps {
		apps[name] = rec
	}
	return UsageTable{Apps: apps, TotalSystemUsage: t.TotalSystemUsage}
}

// Sample is one tick's observation of the foreground application.
type Sample struct {
	App       string
	MemBytes  uint64
	DiskBytes uint64
}

// ProcStat is the resource footprint read for a single PID.
type ProcStat struct {
	PID       int32
	RSSBytes  uint64
	DiskBytes uint64
}
