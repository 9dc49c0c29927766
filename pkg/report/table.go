package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/srodi/appwatch/pkg/types"
)

// TableReporter prints one aligned row per application.
type TableReporter struct {
	out    io.Writer
	header *color.Color
}

// NewTableReporter writes tables to w, defaulting to os.Stdout.
func NewTableReporter(w io.Writer) *TableReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TableReporter{out: w, header: color.New(color.FgCyan, color.Bold)}
}

// Report writes the table. The header is coloured after alignment so escape
// codes do not skew column widths.
func (r *TableReporter) Report(table types.UsageTable) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLICATION\tTIME (s)\tSHARE\tRAM (MB)\tDISK (MB)")
	for _, row := range BuildRows(table) {
		share := 0.0
		if table.TotalSystemUsage > 0 {
			share = 100 * float64(row.TimeSpent) / float64(table.TotalSystemUsage)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%.1f\t%.1f\n", row.Name, row.TimeSpent, share, row.RAMMB, row.DiskMB)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("aligning usage table: %w", err)
	}

	head, body, _ := strings.Cut(buf.String(), "\n")
	if _, err := fmt.Fprintf(r.out, "%s\n%s", r.header.Sprint(head), body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.out, "total_system_usage: %d\n", table.TotalSystemUsage)
	return err
}
