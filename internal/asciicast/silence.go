package asciicast

import (
	"fmt"
	"math"
)

// DefaultSilenceThreshold is the default interval cap (2 seconds): long
// enough to preserve natural reading pauses, short enough to eliminate
// "went to get coffee" gaps.
const DefaultSilenceThreshold = 2.0

// SilenceRemoval caps every event interval at a fixed threshold. Intervals
// at or below the threshold are left unchanged; construction with an
// invalid threshold panics rather than producing a transform that would
// silently misbehave at apply time.
type SilenceRemoval struct {
	threshold float64
}

// NewSilenceRemoval builds a SilenceRemoval transform. threshold must be
// positive and finite; NewSilenceRemoval panics otherwise.
func NewSilenceRemoval(threshold float64) *SilenceRemoval {
	if !(threshold > 0.0 && !math.IsNaN(threshold) && !math.IsInf(threshold, 0)) {
		panic(fmt.Sprintf("threshold must be positive and finite, got: %v", threshold))
	}
	return &SilenceRemoval{threshold: threshold}
}

// Threshold returns the configured cap.
func (s *SilenceRemoval) Threshold() float64 { return s.threshold }

// Apply caps every event's interval at the threshold, regardless of event
// type.
func (s *SilenceRemoval) Apply(events []Event) []Event {
	for i := range events {
		if events[i].Time > s.threshold {
			events[i].Time = s.threshold
		}
	}
	return events
}
