package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "agr",
		Short:   "Record, reduce and analyze agent terminal sessions",
		Version: version,
	}

	f := rootCmd.PersistentFlags()
	f.String("agent", "claude", "analysis backend: claude, codex or gemini")
	f.Int("workers", 0, "worker count override (0 = auto-scale)")
	f.Int("min-workers", 0, "minimum worker count")
	f.Int("max-workers", 0, "maximum worker count")
	f.Float64("overlap-percent", 0, "chunk overlap as a fraction of duration")
	f.Bool("use-schema", true, "pass a JSON schema to backends that accept one")
	f.Duration("timeout", 0, "per-chunk backend timeout")
	f.Bool("fast-mode", false, "skip the schema argument for faster invocations")
	f.Float64("segment-time-gap", 0, "seconds of quiet that start a new segment")
	f.Float64("similarity-threshold", 0, "line similarity above which lines collapse")
	f.Bool("strip-box-drawing", true, "strip box-drawing characters")
	f.Bool("strip-spinner-chars", true, "strip spinner characters")
	f.Bool("strip-progress-blocks", true, "strip progress-bar block characters")
	f.Bool("dry-run", false, "analyze but do not write markers")
	f.Bool("verbose", false, "print per-stage extraction and chunk detail")

	// Bind flags to viper. Viper keys use underscores so they match the env
	// var suffix after stripping the AGR_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("agent", "agent")
	bindFlag("workers", "workers")
	bindFlag("min_workers", "min-workers")
	bindFlag("max_workers", "max-workers")
	bindFlag("overlap_percent", "overlap-percent")
	bindFlag("use_schema", "use-schema")
	bindFlag("timeout", "timeout")
	bindFlag("fast_mode", "fast-mode")
	bindFlag("segment_time_gap", "segment-time-gap")
	bindFlag("similarity_threshold", "similarity-threshold")
	bindFlag("strip_box_drawing", "strip-box-drawing")
	bindFlag("strip_spinner_chars", "strip-spinner-chars")
	bindFlag("strip_progress_blocks", "strip-progress-blocks")
	bindFlag("dry_run", "dry-run")
	bindFlag("verbose", "verbose")

	viper.SetEnvPrefix("AGR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTransformCmd(),
		newMarkersCmd(),
		newRestoreCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
