package asciicast

import (
	"fmt"
	"strings"
)

// MarkerInfo describes a marker at its absolute timestamp.
type MarkerInfo struct {
	Timestamp float64
	Label     string
}

func (m MarkerInfo) String() string {
	return fmt.Sprintf("%.1fs: %s", m.Timestamp, m.Label)
}

// AddMarker adds a marker to the recording at path, at the given absolute
// timestamp.
func AddMarker(path string, timestamp float64, label string) error {
	if timestamp < 0.0 {
		return fmt.Errorf("timestamp cannot be negative")
	}
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("marker label cannot be empty")
	}
	cast, err := Parse(path)
	if err != nil {
		return err
	}
	AddMarkerToFile(cast, timestamp, label)
	return WriteAtomic(path, cast)
}

// AddMarkerToFile inserts a marker event at the given absolute timestamp,
// adjusting the following event's interval so every other event's
// cumulative timestamp is unchanged.
func AddMarkerToFile(cast *File, timestamp float64, label string) {
	index := cast.FindInsertionIndex(timestamp)
	relativeTime := cast.CalculateRelativeTime(index, timestamp)

	marker := NewMarker(relativeTime, label)

	events := make([]Event, 0, len(cast.Events)+1)
	events = append(events, cast.Events[:index]...)
	events = append(events, marker)
	events = append(events, cast.Events[index:]...)
	cast.Events = events

	// The marker's interval pushed every later event forward by relativeTime;
	// take it back out of the next event so all non-marker cumulative
	// timestamps are unchanged. Clamped so intervals never go negative.
	nextIdx := index + 1
	if nextIdx < len(cast.Events) {
		cast.Events[nextIdx].Time -= relativeTime
		if cast.Events[nextIdx].Time < 0.0 {
			cast.Events[nextIdx].Time = 0.0
		}
	}
}

// ListMarkers returns every marker in the recording at path.
func ListMarkers(path string) ([]MarkerInfo, error) {
	cast, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return ListMarkersFromFile(cast), nil
}

// ListMarkersFromFile returns every marker in cast, with absolute
// timestamps resolved.
func ListMarkersFromFile(cast *File) []MarkerInfo {
	cumulative := cast.CumulativeTimes()
	var markers []MarkerInfo
	for i, e := range cast.Events {
		if e.Type == Marker {
			var ts float64
			if i < len(cumulative) {
				ts = cumulative[i]
			}
			markers = append(markers, MarkerInfo{Timestamp: ts, Label: e.Data})
		}
	}
	return markers
}

// ClearMarkers removes every marker from the recording at path, preserving
// total duration, and returns the number of markers removed.
func ClearMarkers(path string) (int, error) {
	cast, err := Parse(path)
	if err != nil {
		return 0, err
	}
	removed := ClearMarkersFromFile(cast)
	if err := WriteAtomic(path, cast); err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearMarkersFromFile removes every marker event from cast, carrying each
// removed marker's interval forward onto the next retained event (or onto
// the last retained event if the removed markers were trailing) so total
// duration is preserved exactly.
func ClearMarkersFromFile(cast *File) int {
	removed := 0
	var carry float64
	output := make([]Event, 0, len(cast.Events))

	for _, e := range cast.Events {
		if e.Type == Marker {
			carry += e.Time
			removed++
			continue
		}
		e.Time += carry
		carry = 0.0
		output = append(output, e)
	}
	if carry > 0.0 && len(output) > 0 {
		output[len(output)-1].Time += carry
	}
	cast.Events = output
	return removed
}

// CountMarkers returns the number of markers in the recording at path.
func CountMarkers(path string) (int, error) {
	cast, err := Parse(path)
	if err != nil {
		return 0, err
	}
	return CountMarkersFromFile(cast), nil
}

// CountMarkersFromFile returns the number of markers in cast.
func CountMarkersFromFile(cast *File) int {
	count := 0
	for _, e := range cast.Events {
		if e.IsMarker() {
			count++
		}
	}
	return count
}
