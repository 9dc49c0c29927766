package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/srodi/appwatch/pkg/store"
	"github.com/srodi/appwatch/pkg/types"
)

// Output formats accepted by ForFormat.
const (
	FormatChart = "chart"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatNone  = "none"
)

// yamlDocument is the YAML export layout.
type yamlDocument struct {
	TotalSystemUsage int64    `yaml:"total_system_usage"`
	Apps             []AppRow `yaml:"apps"`
}

// WriteJSON writes the table in the persisted record layout, indented.
func WriteJSON(w io.Writer, table types.UsageTable) error {
	data, err := store.Encode(table)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("indenting usage table: %w", err)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

// WriteYAML writes the ordered rows and total as YAML.
func WriteYAML(w io.Writer, table types.UsageTable) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{TotalSystemUsage: table.TotalSystemUsage, Apps: BuildRows(table)}); err != nil {
		return fmt.Errorf("encoding usage yaml: %w", err)
	}
	return enc.Close()
}

// ForFormat returns the reporter for a named output format, or nil for "none".
func ForFormat(format string, w io.Writer, width int) (Reporter, error) {
	switch format {
	case FormatChart:
		return NewChartReporter(w, width), nil
	case FormatTable:
		return NewTableReporter(w), nil
	case FormatJSON:
		return ReporterFunc(func(t types.UsageTable) error { return WriteJSON(w, t) }), nil
	case FormatYAML:
		return ReporterFunc(func(t types.UsageTable) error { return WriteYAML(w, t) }), nil
	case FormatNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
