package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srodi/appwatch/pkg/config"
	"github.com/srodi/appwatch/pkg/report"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the stored usage record once",
	Long:  `Load the usage record and print it as a chart, table, JSON or YAML.`,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", report.FormatChart, "Output format: chart, table, json or yaml")
	reportCmd.Flags().String("data", "", "Path of the JSON usage record")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	v := config.New()
	if err := bindFlags(v, cmd.Flags(), map[string]string{"data": "storage.path"}); err != nil {
		return err
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	reporter, err := report.ForFormat(reportFormat, cmd.OutOrStdout(), cfg.Report.Width)
	if err != nil {
		return err
	}
	if reporter == nil {
		return fmt.Errorf("report format %q produces no output", reportFormat)
	}

	st, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	table, err := st.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load usage record: %w", err)
	}
	return reporter.Report(table)
}
