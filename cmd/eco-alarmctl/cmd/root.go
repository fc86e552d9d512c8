package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eco-alarm/internal/models"
	"eco-alarm/internal/settings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "eco-alarmctl",
	Short: "Operator tooling for the eco-alarm service",
	Long: `eco-alarmctl evaluates readings against alert settings offline,
validates settings files, prints the built-in defaults and mints
development API tokens.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettingsFile reads a JSON or YAML settings file and backfills
// missing fields from the defaults. An empty path yields the defaults.
func loadSettingsFile(path string) (models.AlertSettings, error) {
	if path == "" {
		return models.DefaultAlertSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.AlertSettings{}, fmt.Errorf("read settings: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return models.AlertSettings{}, fmt.Errorf("parse settings yaml: %w", err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return models.AlertSettings{}, fmt.Errorf("convert settings yaml: %w", err)
		}
	}

	return settings.Merge(models.DefaultAlertSettings(), data)
}

// writeFormatted prints v as indented JSON or as YAML with the JSON field names.
func writeFormatted(cmd *cobra.Command, v interface{}, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	switch format {
	case "json", "":
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	case "yaml":
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q (expected json or yaml)", format)
	}
}
