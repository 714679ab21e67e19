// Package asciicast implements the asciicast v3 NDJSON recording format:
// parsing, serialization, marker insertion/removal and the silence-removal
// transform.
//
// Reference: https://docs.asciinema.org/manual/asciicast/v3/
package asciicast

import "fmt"

// EventType identifies the kind of an asciicast event.
type EventType int

const (
	Output EventType = iota
	Input
	Marker
	Resize
	Exit
)

func eventTypeFromCode(code string) (EventType, bool) {
	switch code {
	case "o":
		return Output, true
	case "i":
		return Input, true
	case "m":
		return Marker, true
	case "r":
		return Resize, true
	case "x":
		return Exit, true
	default:
		return 0, false
	}
}

func (t EventType) code() string {
	switch t {
	case Output:
		return "o"
	case Input:
		return "i"
	case Marker:
		return "m"
	case Resize:
		return "r"
	case Exit:
		return "x"
	default:
		return "?"
	}
}

func (t EventType) String() string {
	return t.code()
}

// Event is a single asciicast timeline entry. Time is an interval in
// seconds since the previous event, never an absolute timestamp. The sum of
// all intervals equals the recording's total duration; every transform in
// this module preserves that identity except SilenceRemoval.
type Event struct {
	Time float64
	Type EventType
	Data string
}

// NewEvent builds an event of the given type.
func NewEvent(time float64, t EventType, data string) Event {
	return Event{Time: time, Type: t, Data: data}
}

// NewOutput builds an Output event.
func NewOutput(time float64, data string) Event {
	return Event{Time: time, Type: Output, Data: data}
}

// NewMarker builds a Marker event.
func NewMarker(time float64, label string) Event {
	return Event{Time: time, Type: Marker, Data: label}
}

func (e Event) IsOutput() bool { return e.Type == Output }
func (e Event) IsMarker() bool { return e.Type == Marker }

// TermInfo describes the recorded terminal.
type TermInfo struct {
	Cols *uint32 `json:"cols,omitempty"`
	Rows *uint32 `json:"rows,omitempty"`
	Type *string `json:"type,omitempty"`
}

// EnvInfo carries the subset of environment variables asciicast v3 records.
type EnvInfo struct {
	Shell *string `json:"SHELL,omitempty"`
	Term  *string `json:"TERM,omitempty"`
}

// Header is the first NDJSON line of an asciicast v3 file.
type Header struct {
	Version       uint8     `json:"version"`
	Width         *uint32   `json:"width,omitempty"`
	Height        *uint32   `json:"height,omitempty"`
	Term          *TermInfo `json:"term,omitempty"`
	Timestamp     *int64    `json:"timestamp,omitempty"`
	Duration      *float64  `json:"duration,omitempty"`
	Title         *string   `json:"title,omitempty"`
	Command       *string   `json:"command,omitempty"`
	Env           *EnvInfo  `json:"env,omitempty"`
	IdleTimeLimit *float64  `json:"idle_time_limit,omitempty"`
}

// File is a fully parsed asciicast v3 recording: a header plus its event
// timeline.
type File struct {
	Header Header
	Events []Event
}

// NewFile creates an empty recording with the given header.
func NewFile(header Header) *File {
	return &File{Header: header}
}

// Markers returns all marker events, in order.
func (f *File) Markers() []Event {
	var out []Event
	for _, e := range f.Events {
		if e.IsMarker() {
			out = append(out, e)
		}
	}
	return out
}

// Outputs returns all output events, in order.
func (f *File) Outputs() []Event {
	var out []Event
	for _, e := range f.Events {
		if e.IsOutput() {
			out = append(out, e)
		}
	}
	return out
}

// Duration sums every event interval. Distinct from Header.Duration, which
// is opaque recorder-supplied metadata.
func (f *File) Duration() float64 {
	var total float64
	for _, e := range f.Events {
		total += e.Time
	}
	return total
}

// CumulativeTimes returns the running prefix sum of event intervals, one
// entry per event: CumulativeTimes()[i] is the absolute timestamp at which
// event i occurs.
func (f *File) CumulativeTimes() []float64 {
	times := make([]float64, len(f.Events))
	var cumulative float64
	for i, e := range f.Events {
		cumulative += e.Time
		times[i] = cumulative
	}
	return times
}

// FindInsertionIndex returns the index of the first event whose cumulative
// time exceeds timestamp, or len(Events) if none does.
func (f *File) FindInsertionIndex(timestamp float64) int {
	for i, t := range f.CumulativeTimes() {
		if t > timestamp {
			return i
		}
	}
	return len(f.Events)
}

// CalculateRelativeTime returns the interval a new event inserted at index
// would need to land at the given absolute timestamp.
func (f *File) CalculateRelativeTime(index int, absoluteTimestamp float64) float64 {
	if index == 0 {
		return absoluteTimestamp
	}
	cumulative := f.CumulativeTimes()
	var prev float64
	if index-1 < len(cumulative) {
		prev = cumulative[index-1]
	}
	return absoluteTimestamp - prev
}

// ErrUnsupportedVersion is returned when a header declares a version other
// than 3.
type ErrUnsupportedVersion struct {
	Got uint8
}

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("only asciicast v3 format is supported (got version %d)", e.Got)
}
