package cmd

import (
	"fmt"

	"eco-alarm/internal/settings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <settings-file>",
	Short: "Check a settings file for configuration problems",
	Long: `Validate an alert settings file. Blocking problems (unknown alert
method, critical threshold below high) make the command fail; missing
primary contacts are reported as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSettingsFile(args[0])
	if err != nil {
		return err
	}

	issues := settings.Validate(s)
	out := cmd.OutOrStdout()
	for _, issue := range issues {
		level := "warning"
		if issue.Blocking {
			level = "error"
		}
		fmt.Fprintf(out, "%s: %s: %s\n", level, issue.Field, issue.Message)
	}

	if err := settings.CheckBlocking(issues); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is valid\n", args[0])
	return nil
}
