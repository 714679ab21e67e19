package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joestump/agr/internal/asciicast"
)

func newTransformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform <recording>",
		Short: "Collapse long silences in a recording (backed up first)",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransform,
	}
}

func runTransform(cmd *cobra.Command, args []string) error {
	path := args[0]

	if err := checkLock(path); err != nil {
		return err
	}

	result, err := asciicast.ApplyTransforms(path)
	if err != nil {
		return err
	}

	if result.BackupCreated {
		fmt.Printf("Backup created at %s\n", result.BackupPath)
	} else {
		fmt.Printf("Keeping existing backup at %s\n", result.BackupPath)
	}
	fmt.Println(result)
	return nil
}
