package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <mod-id>",
	Short: "Uninstall a mod",
	Long: `Uninstall a mod: deactivate it in the game directory, delete its stored
files, and remove its install record. Mods that depend on it are not removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	modID := args[0]

	service, err := initService(context.Background())
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.UninstallMod(modID); err != nil {
		return err
	}

	fmt.Printf("✓ %s uninstalled\n", modID)
	return nil
}
