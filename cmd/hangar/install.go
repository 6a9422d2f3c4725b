package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <mod-id>",
	Short: "Install a mod and its dependencies",
	Long: `Install a mod from the catalog.

Missing dependencies are installed first. The downloaded archive is verified
against its published hash before anything touches the game directory.

Examples:
  hangar install better-radio
  hangar install night-ops-campaign --parallel 2`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	modID := args[0]
	ctx := context.Background()

	service, err := initService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := installWithProgress(ctx, service, modID); err != nil {
		return err
	}

	fmt.Printf("✓ %s installed\n", modID)
	return nil
}
