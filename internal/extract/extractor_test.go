package extract

import (
	"math"
	"testing"

	"github.com/joestump/agr/internal/asciicast"
	"github.com/joestump/agr/internal/reduce"
)

func defaultExtractor() *ContentExtractor {
	return NewContentExtractor(reduce.DefaultExtractionConfig())
}

func totalTime(events []asciicast.Event) float64 {
	var sum float64
	for _, e := range events {
		sum += e.Time
	}
	return sum
}

func TestExtractConservesTotalDuration(t *testing.T) {
	events := []asciicast.Event{
		asciicast.NewOutput(0.0, "building project\r\n"),
		asciicast.NewOutput(0.5, "compiling main.go\r\n"),
		asciicast.NewOutput(0.3, "linking binary\r\n"),
		asciicast.NewOutput(4.0, "tests passed\r\n"),
		asciicast.NewOutput(0.2, "done\r\n"),
	}
	want := totalTime(events)

	content := defaultExtractor().Extract(events, 80, 24)

	if math.Abs(content.TotalDuration-want) > 1e-6 {
		t.Fatalf("TotalDuration = %v, want %v", content.TotalDuration, want)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	content := defaultExtractor().Extract(nil, 80, 24)
	if len(content.Segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(content.Segments))
	}
	if content.TotalTokens != 0 {
		t.Fatalf("expected zero tokens, got %d", content.TotalTokens)
	}
}

func TestExtractReportsStats(t *testing.T) {
	events := []asciicast.Event{
		asciicast.NewOutput(0.0, "\x1b[1mhello\x1b[0m world\r\n"),
		asciicast.NewOutput(0.1, "goodbye\r\n"),
	}
	content := defaultExtractor().Extract(events, 80, 24)

	if content.Stats.EventsProcessed != 2 {
		t.Errorf("EventsProcessed = %d, want 2", content.Stats.EventsProcessed)
	}
	if content.Stats.OriginalBytes == 0 {
		t.Error("OriginalBytes should count the raw input")
	}
}

func TestRedistributeTimeCapsAndSpreads(t *testing.T) {
	events := []asciicast.Event{
		asciicast.NewOutput(0.1, "a"),
		asciicast.NewOutput(10.0, "b"),
		asciicast.NewOutput(0.1, "c"),
	}
	before := totalTime(events)

	redistributeTime(events, 2.0)

	if events[1].Time != 2.0 {
		t.Errorf("capped event time = %v, want 2.0", events[1].Time)
	}
	// excess 8.0 split across the two uncapped output events.
	if math.Abs(events[0].Time-4.1) > 1e-9 || math.Abs(events[2].Time-4.1) > 1e-9 {
		t.Errorf("uncapped events = %v, %v, want 4.1 each", events[0].Time, events[2].Time)
	}
	if math.Abs(totalTime(events)-before) > 1e-9 {
		t.Errorf("redistribution changed total duration: %v != %v", totalTime(events), before)
	}
}

func TestRedistributeTimeNoNormalEventsGoesToLast(t *testing.T) {
	events := []asciicast.Event{
		asciicast.NewOutput(10.0, "a"),
		asciicast.NewOutput(10.0, "b"),
	}
	before := totalTime(events)

	redistributeTime(events, 2.0)

	if math.Abs(totalTime(events)-before) > 1e-9 {
		t.Errorf("total duration changed: %v != %v", totalTime(events), before)
	}
	// Both events capped at 2.0, the whole 16.0 excess lands on the last.
	if math.Abs(events[1].Time-18.0) > 1e-9 {
		t.Errorf("last event time = %v, want 18.0", events[1].Time)
	}
}

func TestCreateSegmentsSplitsOnGap(t *testing.T) {
	cfg := reduce.DefaultExtractionConfig()
	cfg.SegmentTimeGap = 2.0
	x := NewContentExtractor(cfg)

	events := []asciicast.Event{
		asciicast.NewOutput(0.0, "first part\n"),
		asciicast.NewOutput(0.5, "still first\n"),
		asciicast.NewOutput(10.0, "second part\n"),
	}
	content := x.createSegments(events, ExtractionStats{})

	if len(content.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(content.Segments))
	}
	first, second := content.Segments[0], content.Segments[1]
	if first.StartTime != 0.0 {
		t.Errorf("first segment start = %v, want 0", first.StartTime)
	}
	if math.Abs(first.EndTime-0.5) > 1e-9 {
		t.Errorf("first segment end = %v, want 0.5 (cumulative minus gap)", first.EndTime)
	}
	if math.Abs(second.StartTime-10.5) > 1e-9 {
		t.Errorf("second segment start = %v, want 10.5", second.StartTime)
	}
	if first.Content != "first part\nstill first\n" {
		t.Errorf("first segment content = %q", first.Content)
	}
	if second.Content != "second part\n" {
		t.Errorf("second segment content = %q", second.Content)
	}
}

func TestCreateSegmentsIgnoresLeadingGap(t *testing.T) {
	cfg := reduce.DefaultExtractionConfig()
	cfg.SegmentTimeGap = 2.0
	x := NewContentExtractor(cfg)

	// A gap before any content must not open an empty segment.
	events := []asciicast.Event{
		asciicast.NewOutput(30.0, "late start\n"),
	}
	content := x.createSegments(events, ExtractionStats{})

	if len(content.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(content.Segments))
	}
	if content.Segments[0].StartTime != 30.0 {
		t.Errorf("segment start = %v, want 30.0", content.Segments[0].StartTime)
	}
}

func TestTokenEstimate(t *testing.T) {
	est := TokenEstimator{}
	// 30 chars -> ceil(30/3)=10 -> 10*0.70 = 7.
	content := "abcdefghijklmnopqrstuvwxyz1234"
	if got := est.Estimate(content); got != 7 {
		t.Errorf("Estimate(%d chars) = %d, want 7", len(content), got)
	}
	if got := est.Estimate(""); got != 0 {
		t.Errorf("Estimate(empty) = %d, want 0", got)
	}
}
