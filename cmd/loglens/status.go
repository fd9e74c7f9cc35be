package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd checks that the configured server is reachable.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the LogLens server is reachable",
	Long: `Check connectivity to the configured LogLens server and print its
reported status and version.

Useful for verifying credentials and connection settings before
running searches.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("address", "", "LogLens server address (env LOGLENS_ADDRESS)")
	statusCmd.Flags().String("token", "", "API token (env LOGLENS_TOKEN)")
	statusCmd.Flags().StringP("config", "c", "", "path to YAML config file")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	conn, _, err := resolveConnection(cmd)
	if err != nil {
		return err
	}

	client, err := newSDKClient(conn)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("server is not reachable: %w", err)
	}

	fmt.Println("Server is reachable!")
	fmt.Printf("  Address: %s\n", conn.address)
	fmt.Printf("  Status:  %s\n", status.Status)
	fmt.Printf("  Version: %s\n", status.Version)
	return nil
}
