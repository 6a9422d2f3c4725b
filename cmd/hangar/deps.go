package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <mod-id>",
	Short: "Show a mod's dependency resolution",
	Long: `Resolve a mod's transitive dependencies against the catalog and the
installed set, without installing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	service, err := initService(context.Background())
	if err != nil {
		return err
	}
	defer service.Close()

	res, err := service.ResolveDependencies(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Dependencies of %s:\n", res.ModID)
	printDepList("satisfied", res.Satisfied)
	printDepList("missing (will be installed)", res.Missing)
	printDepList("unresolved", res.Unresolved)

	if res.HasCircularDependency {
		fmt.Println("\nWarning: circular dependency detected")
	}
	if res.FullyResolved() {
		fmt.Println("\nAll dependencies satisfied.")
	}
	return nil
}

func printDepList(label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, id := range ids {
		fmt.Printf("    - %s\n", id)
	}
}
