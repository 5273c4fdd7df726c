package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is a DAG execution engine for dialogue state machines",
	Long: `Arbor runs choice, fork, join and parallel nodes on top of a linear
state machine. The CLI validates node graphs, inspects persisted
sessions and serves the engine over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the node graph YAML files")
}
