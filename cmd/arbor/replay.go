package main

import (
	"fmt"

	"github.com/arborflow/arbor/pkg/session"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Print the event log of a persisted session",
	Long:  `Loads a session snapshot from the configured store and prints its append-only event log in order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closefn, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer closefn()

		return runReplay(cmd, store, args[0])
	},
}

func init() {
	addStoreFlags(replayCmd)
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, store sessionStore, sessionID string) error {
	mgr := session.NewManager(store)
	sess, err := mgr.Load(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", sessionID, err)
	}

	events := sess.Context.Events()
	if len(events) == 0 {
		fmt.Println("no events recorded")
		return nil
	}

	for i, ev := range events {
		fmt.Printf("%3d  %s  %-18s node=%s", i, ev.Timestamp.Format("15:04:05.000"), ev.Type, ev.NodeID)
		if len(ev.Data) > 0 {
			fmt.Printf(" data=%v", ev.Data)
		}
		fmt.Println()
	}
	return nil
}
