package cmd

import (
	"fmt"

	"hardware-manager/core/middleware/auth"

	"github.com/spf13/cobra"
)

var apiKeyCmd = &cobra.Command{
	Use:   "hash-key <api-key>",
	Short: "Print the bcrypt hash of an API key for SERVER_API_KEY",
	Long: `Hashes an API key so the console configuration does not hold it in plain text.
Clients keep sending the plain key in the X-API-Key header.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashKey(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(apiKeyCmd)
}
