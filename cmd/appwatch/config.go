package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/srodi/appwatch/pkg/config"
)

var validateDump bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect appwatch configuration",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the appwatch configuration, including environment overrides, and report unknown keys.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump the effective configuration with modified values highlighted")
	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	v := config.New()
	if _, err := config.Load(v, configPath); err != nil {
		fmt.Fprintf(errOut, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	unknownKeys := findUnknownKeys(v)
	source := configPath
	if source == "" {
		source = "(defaults and environment)"
	}
	fmt.Fprintf(out, "✅ Configuration is valid: %s\n", source)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(out)
		_, _ = red.Fprintf(out, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "   - %s\n", key)
		}
		fmt.Fprintln(out, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if validateDump {
		return dumpConfig(out, v, config.Defaults())
	}
	return nil
}

// findUnknownKeys returns the loaded keys appwatch does not understand, sorted.
func findUnknownKeys(v *viper.Viper) []string {
	valid := config.Keys()
	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !valid[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// dumpConfig prints the effective settings as YAML followed by every key whose
// value differs from its default.
func dumpConfig(w io.Writer, v, defaults *viper.Viper) error {
	settings := v.AllSettings()
	if storage, ok := settings["storage"].(map[string]any); ok {
		if redis, ok := storage["redis"].(map[string]any); ok {
			redis["password"] = redactPassword(fmt.Sprint(redis["password"]))
		}
	}

	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	_, _ = cyan.Fprintln(w, "\n[effective configuration]")
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, _ = cyan.Fprintln(w, "\n[modified from default]")
	keys := defaults.AllKeys()
	sort.Strings(keys)
	modified := 0
	for _, key := range keys {
		value, def := v.Get(key), defaults.Get(key)
		if fmt.Sprint(value) == fmt.Sprint(def) {
			continue
		}
		if key == "storage.redis.password" {
			value, def = redactPassword(fmt.Sprint(value)), redactPassword(fmt.Sprint(def))
		}
		modified++
		_, _ = yellow.Fprintf(w, "  %s = %v  (default: %v)\n", key, value, def)
	}
	if modified == 0 {
		fmt.Fprintln(w, "  none")
	}
	return nil
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
