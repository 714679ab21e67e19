package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joestump/agr/internal/asciicast"
)

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <recording>",
		Short: "Restore a recording from its .bak backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := checkLock(path); err != nil {
				return err
			}
			if err := asciicast.RestoreFromBackup(path); err != nil {
				return err
			}
			fmt.Printf("Restored %s from %s\n", path, asciicast.BackupPathFor(path))
			return nil
		},
	}
}
