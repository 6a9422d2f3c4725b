package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updateApply bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check installed mods for newer versions",
	Long: `Compare installed mods against the catalog. With --apply, newer versions
are downloaded and installed in place; the previous version is restored if
anything goes wrong.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateApply, "apply", false, "install available updates")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	service, err := initService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	updates, err := service.CheckUpdates()
	if err != nil {
		return err
	}

	if len(updates) == 0 {
		fmt.Println("Everything is up to date.")
		return nil
	}

	for _, u := range updates {
		fmt.Printf("  %-24s %s -> %s\n", u.ModID, u.Installed, u.Available)
	}

	if !updateApply {
		fmt.Println("\nRun 'hangar update --apply' to install them.")
		return nil
	}

	for _, u := range updates {
		if err := installWithProgress(ctx, service, u.ModID); err != nil {
			return fmt.Errorf("updating %s: %w", u.ModID, err)
		}
		fmt.Printf("✓ %s updated to %s\n", u.ModID, u.Available)
	}
	return nil
}
