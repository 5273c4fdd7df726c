package main

import (
	"fmt"

	"github.com/arborflow/arbor/pkg/adapters/yamlgraph"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the nodes of the graph",
	Long:  `Loads the graph directory and prints each node with its type and the structure relevant to DAG dispatch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		return runInspect(dir)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(dir string) error {
	loader, err := yamlgraph.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	ids, err := loader.ListNodes()
	if err != nil {
		return err
	}

	for _, id := range ids {
		cfg, err := loader.GetNode(id)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %s", id, cfg.Type)
		switch {
		case len(cfg.Choices) > 0:
			fmt.Printf("  options=%d default=%q", len(cfg.Choices), cfg.Default)
		case len(cfg.Branches) > 0:
			fmt.Printf("  branches=%d join=%q", len(cfg.Branches), cfg.JoinTarget)
		case len(cfg.Regions) > 0:
			fmt.Printf("  regions=%d", len(cfg.Regions))
		}
		if cfg.JoinPolicy != "" {
			fmt.Printf("  policy=%s", cfg.JoinPolicy)
		}
		fmt.Println()
	}
	return nil
}
