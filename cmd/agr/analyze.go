package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/joestump/agr/internal/aggregate"
	"github.com/joestump/agr/internal/asciicast"
	"github.com/joestump/agr/internal/backend"
	"github.com/joestump/agr/internal/chunk"
	"github.com/joestump/agr/internal/config"
	"github.com/joestump/agr/internal/executor"
	"github.com/joestump/agr/internal/extract"
	"github.com/joestump/agr/internal/lock"
)

const (
	defaultCols = 80
	defaultRows = 24

	// seqMaxRetries bounds the per-chunk retry loop used when the parallel
	// pass was fully rate-limited and we fall back to sequential.
	seqMaxRetries = 2
	seqRetryBase  = 10 * time.Second
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <recording>",
		Short: "Detect workflow markers in a recording using an LLM backend",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	path := args[0]

	if err := checkLock(path); err != nil {
		return err
	}

	cast, err := asciicast.Parse(path)
	if err != nil {
		return fmt.Errorf("parse recording: %w", err)
	}

	cols, rows := terminalSize(cast.Header)
	extractor := extract.NewContentExtractor(cfg.ExtractionConfig())
	content := extractor.Extract(cast.Events, cols, rows)

	if len(content.Segments) == 0 || content.TotalTokens == 0 {
		return fmt.Errorf("no analyzable content in %s", path)
	}
	if cfg.Verbose {
		printExtractionStats(content)
	}

	agentType := cfg.AgentType()
	bk := agentType.CreateBackend()
	if !bk.IsAvailable() {
		return fmt.Errorf("backend %s is not available (CLI %q not on PATH)", agentType, agentType.CommandName())
	}

	planner := chunk.NewPlanner(bk.TokenBudget())
	if cfg.OverlapPercent > 0 {
		planner.WithOverlapPercent(cfg.OverlapPercent)
	}
	chunks := planner.Plan(content)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks planned for %s", path)
	}

	totalTokens := 0
	for _, c := range chunks {
		totalTokens += c.EstimatedTokens
	}
	scaler := executor.NewWorkerScaler(cfg.WorkerConfig())
	workers := scaler.CalculateWorkers(len(chunks), totalTokens)

	fmt.Printf("Analyzing %s: %d chunks, ~%s tokens, %d workers, backend %s\n",
		path, len(chunks), humanize.Comma(int64(totalTokens)), workers, bk.Name())

	useSchema := cfg.UseSchema && !cfg.FastMode
	exec := executor.NewParallelExecutor(bk, cfg.InvokeTimeout(), workers, useSchema)
	progress := executor.NewProgressReporterWithCallback(len(chunks), func(completed, total int) {
		fmt.Printf("  chunk %d/%d done\n", completed, total)
	})

	results, tracker := exec.ExecuteWithTracking(chunks, progress, buildAnalysisPrompt)

	if executor.ShouldFallbackToSequential(results) {
		fmt.Println("All chunks were rate limited; retrying sequentially with backoff")
		results = retrySequential(cmd.Context(), bk, cfg.InvokeTimeout(), useSchema, results)
	}

	aggregator := aggregate.New(content.TotalDuration)
	markers, report := aggregator.Aggregate(results)

	printAggregationReport(report, tracker.Summary(), cfg.Verbose)

	if len(markers) == 0 {
		if len(report.FailedChunkDetails) == len(results) {
			return errors.New("every chunk failed; no markers to write")
		}
		fmt.Println("No markers detected")
		return nil
	}

	if cfg.DryRun {
		fmt.Printf("Dry run: would write %d markers\n", len(markers))
		for _, m := range markers {
			fmt.Printf("  %8.1fs  %s\n", m.Timestamp, m.Label)
		}
		return nil
	}

	writeReport := aggregate.WriteMarkersToCast(cast, markers)
	if err := asciicast.WriteAtomic(path, cast); err != nil {
		return fmt.Errorf("write markers: %w", err)
	}
	if writeReport.HadExistingMarkers {
		fmt.Printf("Note: recording already had %d markers\n", writeReport.ExistingMarkerCount)
	}
	fmt.Printf("Wrote %d markers to %s\n", writeReport.MarkersWritten, path)
	return nil
}

// checkLock refuses to touch a recording a live recorder process still
// owns, and surfaces stale-lock guidance without removing anything.
func checkLock(path string) error {
	if err := lock.Check(path); err != nil {
		var locked *lock.ErrLocked
		if errors.As(err, &locked) {
			return fmt.Errorf("recording is in progress: %w", err)
		}
		return err
	}
	if stale, info, _ := lock.IsStale(path); stale {
		fmt.Printf("Warning: stale lock from pid %d at %s; remove it with `rm %s` if the recorder is gone\n",
			info.PID, lock.PathFor(path), lock.PathFor(path))
	}
	return nil
}

func terminalSize(h asciicast.Header) (int, int) {
	cols, rows := defaultCols, defaultRows
	if h.Term != nil {
		if h.Term.Cols != nil {
			cols = int(*h.Term.Cols)
		}
		if h.Term.Rows != nil {
			rows = int(*h.Term.Rows)
		}
	}
	if h.Width != nil {
		cols = int(*h.Width)
	}
	if h.Height != nil {
		rows = int(*h.Height)
	}
	return cols, rows
}

// buildAnalysisPrompt renders one chunk into the prompt handed to the
// backend CLI. Marker timestamps come back relative to the chunk's start;
// the aggregator resolves them to absolute recording time.
func buildAnalysisPrompt(c chunk.AnalysisChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are reviewing a terminal session transcript from an AI coding agent.
The excerpt below covers %.0f seconds of the session, starting at %.0fs.

Identify the significant workflow moments and return them as JSON:
{"markers":[{"timestamp":<seconds from the start of THIS excerpt>,"label":"<short description>","category":"planning"|"design"|"implementation"|"success"|"failure"}]}

Rules:
- timestamps are relative to the start of this excerpt, in seconds
- label each moment in under ten words
- planning: reading code, forming a plan; design: weighing approaches;
  implementation: writing or editing code; success: a build/test/goal
  succeeding; failure: an error, failed test or abandoned approach
- return only the JSON object, nothing else

Transcript:
`, c.TimeRange.Duration(), c.TimeRange.Start)
	b.WriteString(c.Content)
	return b.String()
}

// retrySequential re-runs every failed chunk one at a time, honoring each
// rate limit's advertised retry-after before the next attempt.
func retrySequential(ctx context.Context, bk backend.AgentBackend, timeout time.Duration, useSchema bool, results []executor.ChunkResult) []executor.ChunkResult {
	if ctx == nil {
		ctx = context.Background()
	}
	for i, r := range results {
		if r.IsSuccess() {
			continue
		}
		c := r.ChunkID
		prompt := buildAnalysisPrompt(c)

		var markers []backend.RawMarker
		var lastWait time.Duration
		backoff := retry.WithMaxRetries(seqMaxRetries, retry.BackoffFunc(func() (time.Duration, bool) {
			if lastWait > 0 {
				w := lastWait
				lastWait = 0
				return w, false
			}
			return seqRetryBase, false
		}))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			raw, err := bk.Invoke(prompt, timeout, useSchema)
			if err != nil {
				var be *backend.BackendError
				if errors.As(err, &be) && be.Kind == backend.ErrRateLimited {
					lastWait = be.WaitDuration(seqRetryBase)
					return retry.RetryableError(err)
				}
				return err
			}
			parsed, err := bk.ParseResponse(raw)
			if err != nil {
				return err
			}
			markers = parsed
			return nil
		})
		if err != nil {
			results[i] = executor.NewFailureResult(c, err)
			continue
		}
		results[i] = executor.NewSuccessResult(c, markers)
	}
	return results
}

func printExtractionStats(content extract.AnalysisContent) {
	s := content.Stats
	fmt.Printf("Extraction: %s -> %s (%d/%d events kept, %d segments)\n",
		humanize.Bytes(uint64(s.OriginalBytes)), humanize.Bytes(uint64(s.ExtractedBytes)),
		s.EventsRetained, s.EventsProcessed, len(content.Segments))
	fmt.Printf("  ansi stripped: %d, coalesced: %d, deduped lines: %d, collapsed: %d, truncated blocks: %d, bursts: %d\n",
		s.AnsiStripped, s.EventsCoalesced, s.GlobalLinesDeduped, s.LinesCollapsed, s.BlocksTruncated, s.BurstsCollapsed)
}

func printAggregationReport(report aggregate.Report, usage executor.UsageSummary, verbose bool) {
	fmt.Printf("Markers: %d collected, %d invalid, %d duplicates removed, %d final\n",
		report.TotalCollected, report.InvalidFiltered, report.DuplicatesRemoved, report.FinalCount)
	if verbose {
		fmt.Printf("Usage: %d/%d chunks succeeded (%.0f%%), ~%s tokens\n",
			usage.SuccessfulChunks, usage.ChunksProcessed, usage.SuccessRate*100,
			humanize.Comma(int64(usage.TotalEstimatedTokens)))
	}
	for _, f := range report.FailedChunkDetails {
		fmt.Printf("  failed chunk %.0fs-%.0fs: %s\n",
			f.ChunkID.TimeRange.Start, f.ChunkID.TimeRange.End, f.Error)
	}
}
