package reduce

import (
	"strings"
	"testing"

	"github.com/joestump/agr/internal/asciicast"
)

func TestCalculateSimilarityIdentical(t *testing.T) {
	if got := calculateSimilarity("abc", "abc"); got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
}

func TestCalculateSimilarityEmpty(t *testing.T) {
	if got := calculateSimilarity("", "abc"); got != 0.0 {
		t.Fatalf("got %v, want 0.0", got)
	}
}

func TestSimilarityFilterCollapsesRepeatedLines(t *testing.T) {
	f := NewSimilarityFilter(0.8)
	events := f.Apply([]asciicast.Event{
		asciicast.NewOutput(0.1, "Loading.....\n"),
		asciicast.NewOutput(0.1, "Loading.....\n"),
		asciicast.NewOutput(0.1, "Loading.....\n"),
		asciicast.NewOutput(0.1, "Done!\n"),
	})
	joined := ""
	for _, e := range events {
		joined += e.Data
	}
	if !strings.Contains(joined, "collapsed") {
		t.Fatalf("expected a collapsed-lines marker, got %q", joined)
	}
	if !strings.Contains(joined, "Done!") {
		t.Fatalf("expected final line preserved, got %q", joined)
	}
}

func TestSimilarityFilterKeepsShortLines(t *testing.T) {
	f := NewSimilarityFilter(0.1)
	events := f.Apply([]asciicast.Event{
		asciicast.NewOutput(0.1, "ok\n"),
		asciicast.NewOutput(0.1, "ok\n"),
	})
	joined := ""
	for _, e := range events {
		joined += e.Data
	}
	if strings.Contains(joined, "collapsed") {
		t.Fatalf("short lines should never trigger collapse, got %q", joined)
	}
}

func TestEventCoalescerMergesSimilarFastEvents(t *testing.T) {
	c := NewEventCoalescer(0.85, 0.5)
	events := c.Apply([]asciicast.Event{
		asciicast.NewOutput(0.1, "spinner frame one xxxx"),
		asciicast.NewOutput(0.1, "spinner frame two xxxx"),
	})
	if len(events) != 1 {
		t.Fatalf("expected coalesced into 1 event, got %d", len(events))
	}
	if !approxEqualT(events[0].Time, 0.2) {
		t.Fatalf("expected summed time 0.2, got %v", events[0].Time)
	}
}

func TestEventCoalescerDoesNotMergeSlowEvents(t *testing.T) {
	c := NewEventCoalescer(0.9, 0.05)
	events := c.Apply([]asciicast.Event{
		asciicast.NewOutput(1.0, "same content here"),
		asciicast.NewOutput(1.0, "same content here"),
	})
	if len(events) != 2 {
		t.Fatalf("expected 2 events (interval too large to coalesce), got %d", len(events))
	}
}

func TestGlobalDeduplicatorDropsRepeatedEventHash(t *testing.T) {
	g := NewGlobalDeduplicator(100, 10)
	events := g.Apply([]asciicast.Event{
		asciicast.NewOutput(1.0, "frame\n"),
		asciicast.NewOutput(1.0, "frame\n"),
		asciicast.NewOutput(1.0, "different\n"),
	})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !approxEqualT(events[1].Time, 2.0) {
		t.Fatalf("expected accumulated time 2.0, got %v", events[1].Time)
	}
}

func TestGlobalDeduplicatorCapsLineRepeats(t *testing.T) {
	g := NewGlobalDeduplicator(2, 10)
	events := g.Apply([]asciicast.Event{
		asciicast.NewOutput(0.1, "repeat\na\n"),
		asciicast.NewOutput(0.1, "repeat\nb\n"),
		asciicast.NewOutput(0.1, "repeat\nc\n"),
	})
	joined := ""
	for _, e := range events {
		joined += e.Data
	}
	if strings.Count(joined, "repeat") != 2 {
		t.Fatalf("expected line capped at 2 occurrences, got %q", joined)
	}
}

func TestBlockTruncatorLeavesSmallBlocksAlone(t *testing.T) {
	b := NewBlockTruncator(1000, 3)
	events := b.Apply([]asciicast.Event{asciicast.NewOutput(0.1, "short")})
	if events[0].Data != "short" {
		t.Fatalf("expected unchanged, got %q", events[0].Data)
	}
}

func TestBlockTruncatorTruncatesLargeLineBlock(t *testing.T) {
	b := NewBlockTruncator(50, 2)
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "line content padding to grow size")
	}
	data := strings.Join(lines, "\n") + "\n"
	events := b.Apply([]asciicast.Event{asciicast.NewOutput(0.1, data)})
	if !strings.Contains(events[0].Data, "truncated") {
		t.Fatalf("expected truncation marker, got %q", events[0].Data)
	}
	if b.TotalTruncated != 1 {
		t.Fatalf("expected 1 truncated block, got %d", b.TotalTruncated)
	}
}

func TestBlockTruncatorCharacterTruncationForFewLines(t *testing.T) {
	b := NewBlockTruncator(20, 5)
	data := strings.Repeat("x", 200)
	events := b.Apply([]asciicast.Event{asciicast.NewOutput(0.1, data)})
	if !strings.Contains(events[0].Data, "truncated") {
		t.Fatalf("expected byte-count truncation marker, got %q", events[0].Data)
	}
}
