package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Detect conflicts between installed mods",
	Long: `Check every pair of installed mods for declared incompatibilities,
overlapping functionality, and circular dependencies. Detection is advisory;
nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: runConflicts,
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}

func runConflicts(cmd *cobra.Command, args []string) error {
	service, err := initService(context.Background())
	if err != nil {
		return err
	}
	defer service.Close()

	conflicts, err := service.DetectConflicts()
	if err != nil {
		return err
	}

	if len(conflicts) == 0 {
		fmt.Println("No conflicts detected.")
		return nil
	}

	fmt.Printf("Found %d conflict(s):\n\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  %s <-> %s: %s (severity: %s)\n", c.ModA, c.ModB, c.Type, c.Severity)
	}
	return nil
}
