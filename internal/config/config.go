// Package config centralizes the runtime settings every agr subcommand
// reads from flags, environment variables and defaults merged by viper.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/joestump/agr/internal/backend"
	"github.com/joestump/agr/internal/executor"
	"github.com/joestump/agr/internal/reduce"
)

// Config holds every tunable the agr CLI exposes: extraction behavior,
// chunk/worker sizing, and backend selection.
type Config struct {
	// Extraction tuning (internal/reduce).
	StripBoxDrawing     bool
	StripSpinnerChars   bool
	StripProgressBlocks bool
	SegmentTimeGap      float64
	SimilarityThreshold float64

	// Chunk/worker sizing (internal/chunk, internal/executor).
	WorkerOverride *int
	MinWorkers     int
	MaxWorkers     int
	OverlapPercent float64

	// Backend selection (internal/backend).
	Agent     string
	UseSchema bool
	Timeout   time.Duration
	FastMode  bool

	// Output behavior.
	DryRun  bool
	Verbose bool
}

// Load reads configuration from viper, which merges flag values, env vars
// and defaults (set up by the cobra commands in cmd/agr).
func Load() Config {
	cfg := Config{
		StripBoxDrawing:     viper.GetBool("strip_box_drawing"),
		StripSpinnerChars:   viper.GetBool("strip_spinner_chars"),
		StripProgressBlocks: viper.GetBool("strip_progress_blocks"),
		SegmentTimeGap:      viper.GetFloat64("segment_time_gap"),
		SimilarityThreshold: viper.GetFloat64("similarity_threshold"),
		MinWorkers:          viper.GetInt("min_workers"),
		MaxWorkers:          viper.GetInt("max_workers"),
		OverlapPercent:      viper.GetFloat64("overlap_percent"),
		Agent:               viper.GetString("agent"),
		UseSchema:           viper.GetBool("use_schema"),
		Timeout:             viper.GetDuration("timeout"),
		FastMode:            viper.GetBool("fast_mode"),
		DryRun:              viper.GetBool("dry_run"),
		Verbose:             viper.GetBool("verbose"),
	}
	if n := viper.GetInt("workers"); n > 0 {
		cfg.WorkerOverride = &n
	}
	return cfg
}

// ExtractionConfig builds the internal/reduce tuning from the CLI config,
// starting from the pipeline defaults and overriding what the user set.
func (c Config) ExtractionConfig() reduce.ExtractionConfig {
	ec := reduce.DefaultExtractionConfig()
	ec.StripBoxDrawing = c.StripBoxDrawing
	ec.StripSpinnerChars = c.StripSpinnerChars
	ec.StripProgressBlocks = c.StripProgressBlocks
	if c.SegmentTimeGap > 0 {
		ec.SegmentTimeGap = c.SegmentTimeGap
	}
	if c.SimilarityThreshold > 0 {
		ec.SimilarityThreshold = c.SimilarityThreshold
	}
	return ec
}

// WorkerConfig builds the internal/executor worker-scaling configuration
// from the CLI config.
func (c Config) WorkerConfig() executor.WorkerConfig {
	wc := executor.DefaultWorkerConfig()
	if c.MinWorkers > 0 {
		wc.MinWorkers = c.MinWorkers
	}
	if c.MaxWorkers > 0 {
		wc.MaxWorkers = c.MaxWorkers
	}
	wc.UserOverride = c.WorkerOverride
	return wc
}

// AgentType resolves the configured backend name to an AgentType, defaulting
// to Claude when unset or unrecognized.
func (c Config) AgentType() backend.AgentType {
	switch c.Agent {
	case "codex":
		return backend.Codex
	case "gemini":
		return backend.Gemini
	default:
		return backend.Claude
	}
}

// InvokeTimeout returns the configured per-chunk backend timeout, defaulting
// to 2 minutes when unset.
func (c Config) InvokeTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 2 * time.Minute
}
