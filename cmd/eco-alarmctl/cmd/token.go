package cmd

import (
	"fmt"
	"os"
	"time"

	"eco-alarm/internal/auth"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint an API token for a user",
	Long: `Mint an HS256 bearer token accepted by the eco-alarm API.
The signing secret is read from --secret or JWT_SECRET.

Examples:
  eco-alarmctl token user-42
  eco-alarmctl token user-42 --ttl 1h --email ops@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("secret", "", "signing secret (default $JWT_SECRET)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().String("email", "", "email claim")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret, _ := cmd.Flags().GetString("secret")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	email, _ := cmd.Flags().GetString("email")

	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("no signing secret: pass --secret or set JWT_SECRET")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	token, err := auth.GenerateToken(args[0], email, ttl, []byte(secret))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
