package aggregate

import "github.com/joestump/agr/internal/asciicast"

// WriteReport summarizes a marker-writing pass.
type WriteReport struct {
	MarkersWritten      int
	HadExistingMarkers  bool
	ExistingMarkerCount int
}

// HasExistingMarkers reports whether cast already carries marker events.
func HasExistingMarkers(cast *asciicast.File) (bool, int) {
	count := asciicast.CountMarkersFromFile(cast)
	return count > 0, count
}

// WriteMarkersToCast appends every validated marker to cast in memory,
// preserving the non-marker cumulative timestamps (asciicast.AddMarkerToFile
// handles the relative-time bookkeeping).
func WriteMarkersToCast(cast *asciicast.File, markers []ValidatedMarker) WriteReport {
	hadExisting, existingCount := HasExistingMarkers(cast)

	for _, marker := range markers {
		asciicast.AddMarkerToFile(cast, marker.Timestamp, marker.Label)
	}

	return WriteReport{
		MarkersWritten:      len(markers),
		HadExistingMarkers:  hadExisting,
		ExistingMarkerCount: existingCount,
	}
}

// WriteMarkers parses path, writes markers into it, and persists the result
// back to disk.
func WriteMarkers(path string, markers []ValidatedMarker) (WriteReport, error) {
	cast, err := asciicast.Parse(path)
	if err != nil {
		return WriteReport{}, err
	}
	report := WriteMarkersToCast(cast, markers)
	if err := asciicast.WriteAtomic(path, cast); err != nil {
		return WriteReport{}, err
	}
	return report, nil
}
