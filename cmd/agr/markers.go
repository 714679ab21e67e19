package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joestump/agr/internal/asciicast"
)

func newMarkersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List, add or clear markers in a recording",
	}
	cmd.AddCommand(newMarkersListCmd(), newMarkersAddCmd(), newMarkersClearCmd())
	return cmd
}

func newMarkersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <recording>",
		Short: "List markers with their absolute timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			markers, err := asciicast.ListMarkers(args[0])
			if err != nil {
				return err
			}
			if len(markers) == 0 {
				fmt.Println("No markers")
				return nil
			}
			for _, m := range markers {
				fmt.Println(m)
			}
			return nil
		},
	}
}

func newMarkersAddCmd() *cobra.Command {
	var at float64
	cmd := &cobra.Command{
		Use:   "add <recording> <label>",
		Short: "Insert a marker at an absolute timestamp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, label := args[0], args[1]
			if err := checkLock(path); err != nil {
				return err
			}
			if at < 0 {
				return fmt.Errorf("timestamp must be non-negative, got %v", at)
			}
			if err := asciicast.AddMarker(path, at, label); err != nil {
				return err
			}
			fmt.Printf("Added marker %q at %.1fs\n", label, at)
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "absolute timestamp in seconds")
	return cmd
}

func newMarkersClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <recording>",
		Short: "Remove every marker, preserving total duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := checkLock(path); err != nil {
				return err
			}
			removed, err := asciicast.ClearMarkers(path)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d markers from %s\n", removed, path)
			return nil
		},
	}
}
