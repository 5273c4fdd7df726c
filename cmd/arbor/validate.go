package main

import (
	"fmt"
	"os"

	"github.com/arborflow/arbor"
	"github.com/arborflow/arbor/internal/runtime"
	"github.com/arborflow/arbor/pkg/adapters/yamlgraph"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the node graph for consistency",
	Long:  `Loads every YAML node definition in the graph directory and reports misconfigurations before they surface at runtime.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		faults, err := runValidate(dir)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		if faults > 0 {
			os.Exit(1)
		}
		fmt.Println("Graph is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(dir string) (faults int, err error) {
	loader, err := yamlgraph.LoadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to load graph: %w", err)
	}

	eng := arbor.New(loader)
	findings, err := eng.ValidateGraph()
	if err != nil {
		return 0, err
	}

	for _, f := range findings {
		fmt.Println(f.String())
		if f.Severity == runtime.SeverityError {
			faults++
		}
	}
	return faults, nil
}
