package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted session IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closefn, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer closefn()

		ids, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no sessions")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closefn, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer closefn()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addStoreFlags(sessionsListCmd)
	addStoreFlags(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
