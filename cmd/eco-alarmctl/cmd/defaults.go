package cmd

import (
	"eco-alarm/internal/models"

	"github.com/spf13/cobra"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in default alert settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return writeFormatted(cmd, models.DefaultAlertSettings(), format)
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
	defaultsCmd.Flags().StringP("format", "f", "yaml", "output format (json, yaml)")
}
