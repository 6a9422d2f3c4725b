package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <mod-id>",
	Short: "Enable an installed mod",
	Long:  `Enable a disabled mod by re-activating its stored files in the game directory.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <mod-id>",
	Short: "Disable an installed mod",
	Long: `Disable a mod without uninstalling it. The mod disappears from the game
directory but its files stay in storage, so enabling it again is instant.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

func runToggle(modID string, enabled bool) error {
	service, err := initService(context.Background())
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.ToggleMod(modID, enabled); err != nil {
		return err
	}

	if enabled {
		fmt.Printf("✓ %s enabled\n", modID)
	} else {
		fmt.Printf("✓ %s disabled\n", modID)
	}
	return nil
}
