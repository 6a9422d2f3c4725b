package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed mods",
	Long:  `List every installed mod with its version, category, and enabled state.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	service, err := initServiceOffline()
	if err != nil {
		return err
	}
	defer service.Close()

	installed, err := service.ListInstalled()
	if err != nil {
		return err
	}

	if len(installed) == 0 {
		fmt.Println("No mods installed.")
		return nil
	}

	fmt.Printf("Installed mods (%d), activation: %s\n\n", len(installed), service.LinkMethod())
	for _, m := range installed {
		state := "enabled"
		if !m.Enabled {
			state = "disabled"
		}
		fmt.Printf("  %-24s %-10s %-10s %s\n", m.ModID, m.Version, m.Category, state)
	}
	return nil
}
