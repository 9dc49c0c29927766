package report

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/srodi/appwatch/pkg/aggregate"
	"github.com/srodi/appwatch/pkg/types"
)

const bytesPerMB = 1024 * 1024

// Reporter renders a snapshot of the usage table.
type Reporter interface {
	Report(table types.UsageTable) error
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(types.UsageTable) error

// Report calls f(table).
func (f ReporterFunc) Report(table types.UsageTable) error { return f(table) }

// AppRow is one application's counters converted for display.
type AppRow struct {
	Name      string  `json:"name" yaml:"name"`
	TimeSpent int64   `json:"time_spent" yaml:"time_spent"`
	RAMMB     float64 `json:"ram_mb" yaml:"ram_mb"`
	DiskMB    float64 `json:"disk_mb" yaml:"disk_mb"`
}

// BuildRows returns one row per application ordered by time spent, most used
// first, with ties broken by name. The reserved total key never becomes a row.
func BuildRows(table types.UsageTable) []AppRow {
	rows := make([]AppRow, 0, len(table.Apps))
	for name, rec := range table.Apps {
		if name == types.TotalKey {
			continue
		}
		rows = append(rows, AppRow{
			Name:      name,
			TimeSpent: rec.TimeSpent,
			RAMMB:     float64(rec.RAMUsage) / bytesPerMB,
			DiskMB:    float64(rec.DiskUsage) / bytesPerMB,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TimeSpent == rows[j].TimeSpent {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].TimeSpent > rows[j].TimeSpent
	})
	return rows
}

// LogReporter writes a single structured summary line per snapshot.
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter returns a reporter that logs at info level.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger.With().Str("component", "reporter").Logger()}
}

// Report logs the app count, totals and the most used application.
func (r *LogReporter) Report(table types.UsageTable) error {
	rows := BuildRows(table)
	sum := aggregate.Totals(table)
	event := r.logger.Info().
		Int("apps", len(rows)).
		Int64("total_system_usage", table.TotalSystemUsage).
		Float64("ram_mb", float64(sum.RAMUsage)/bytesPerMB).
		Float64("disk_mb", float64(sum.DiskUsage)/bytesPerMB)
	if len(rows) > 0 {
		event = event.Str("top", rows[0].Name).Int64("top_seconds", rows[0].TimeSpent)
	}
	event.Msg("usage snapshot")
	return nil
}

type safeReporter struct {
	next   Reporter
	logger zerolog.Logger
}

// Safe wraps next so that errors and panics while rendering are logged at warn
// level and never reach the caller.
func Safe(next Reporter, logger zerolog.Logger) Reporter {
	return &safeReporter{next: next, logger: logger.With().Str("component", "reporter").Logger()}
}

func (s *safeReporter) Report(table types.UsageTable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("panic", fmt.Sprint(r)).Msg("usage report panicked")
		}
		err = nil
	}()
	if rerr := s.next.Report(table); rerr != nil {
		s.logger.Warn().Err(rerr).Msg("usage report failed")
	}
	return nil
}

// Multi fans a snapshot out to several reporters, returning the first error.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(table types.UsageTable) error {
		var first error
		for _, r := range reporters {
			if err := r.Report(table); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
