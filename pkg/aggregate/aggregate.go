package aggregate

import "github.com/srodi/appwatch/pkg/types"

// RecordSample applies one tick's sample and returns the updated table.
// The input table is left untouched. An empty or reserved identifier means
// no foreground application could be resolved and nothing is recorded.
func RecordSample(table types.UsageTable, app string, memBytes, diskBytes uint64) types.UsageTable {
	if app == "" || app == types.TotalKey {
		return table
	}

	next := table.Clone()
	if rec, ok := next.Apps[app]; ok {
		rec.TimeSpent++
		rec.RAMUsage += memBytes
		rec.DiskUsage += diskBytes
		next.Apps[app] = rec
	} else {
		next.Apps[app] = types.NewUsageRecord(memBytes, diskBytes)
	}
	next.TotalSystemUsage++
	return next
}

// Apply folds samples through RecordSample in order.
func Apply(table types.UsageTable, samples ...types.Sample) types.UsageTable {
	for _, s := range samples {
		table = RecordSample(table, s.App, s.MemBytes, s.DiskBytes)
	}
	return table
}

// Totals sums the counters of every application in the table.
func Totals(table types.UsageTable) types.UsageRecord {
	var sum types.UsageRecord
	for _, rec := range table.Apps {
		sum.TimeSpent += rec.TimeSpent
		sum.RAMUsage += rec.RAMUsage
		sum.DiskUsage += rec.DiskUsage
	}
	return sum
}
