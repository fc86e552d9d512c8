package cmd

import (
	"fmt"

	"eco-alarm/internal/evaluator"
	"eco-alarm/internal/models"
	"eco-alarm/internal/notifier"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a reading against alert settings",
	Long: `Evaluate one reading against a settings file (or the defaults) and
print the breaches that would trigger a notification.

Examples:
  eco-alarmctl evaluate --temperature 31 --humidity 50 --co2 500
  eco-alarmctl evaluate --settings alerts.yaml --co2 1600 --json`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().Float64("temperature", 0, "temperature in °C")
	evaluateCmd.Flags().Float64("humidity", 0, "relative humidity in %")
	evaluateCmd.Flags().Float64("co2", 0, "CO2 concentration in ppm")
	evaluateCmd.Flags().StringP("settings", "s", "", "settings file (JSON or YAML); defaults when empty")
	evaluateCmd.Flags().Bool("json", false, "output as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	humidity, _ := cmd.Flags().GetFloat64("humidity")
	co2, _ := cmd.Flags().GetFloat64("co2")
	settingsPath, _ := cmd.Flags().GetString("settings")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := loadSettingsFile(settingsPath)
	if err != nil {
		return err
	}

	result := evaluator.Evaluate(models.Reading{Temperature: temperature, Humidity: humidity, CO2: co2}, s)
	if jsonOutput {
		return writeFormatted(cmd, result, "json")
	}

	out := cmd.OutOrStdout()
	if !result.IsAlert {
		fmt.Fprintln(out, "No thresholds breached.")
		return nil
	}
	fmt.Fprintf(out, "%d threshold(s) breached:\n", len(result.Alerts))
	fmt.Fprintln(out, notifier.BuildMessage(result.Alerts))
	return nil
}
