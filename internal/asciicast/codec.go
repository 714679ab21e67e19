package asciicast

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads an asciicast v3 file from path.
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(f)
}

// ParseReader reads an asciicast v3 stream: a JSON header line followed by
// one JSON event-array per line. Blank lines are skipped.
func ParseReader(r io.Reader) (*File, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header line: %w", err)
		}
		return nil, fmt.Errorf("file is empty")
	}

	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if header.Version != 3 {
		return nil, ErrUnsupportedVersion{Got: header.Version}
	}

	file := &File{Header: header}
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		event, err := parseEventJSON(line)
		if err != nil {
			return nil, fmt.Errorf("parse event on line %d: %w", lineNum, err)
		}
		file.Events = append(file.Events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return file, nil
}

// ParseString parses an asciicast v3 recording from its in-memory NDJSON
// text.
func ParseString(content string) (*File, error) {
	return ParseReader(strings.NewReader(content))
}

func parseEventJSON(line string) (Event, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(line), &arr); err != nil {
		return Event{}, fmt.Errorf("event must be a JSON array: %w", err)
	}
	if len(arr) < 3 {
		return Event{}, fmt.Errorf("event array must have at least 3 elements")
	}

	var t float64
	if err := json.Unmarshal(arr[0], &t); err != nil {
		return Event{}, fmt.Errorf("event time must be a number: %w", err)
	}

	var code string
	if err := json.Unmarshal(arr[1], &code); err != nil {
		return Event{}, fmt.Errorf("event type must be a string: %w", err)
	}
	eventType, ok := eventTypeFromCode(code)
	if !ok {
		return Event{}, fmt.Errorf("unknown event type: %s", code)
	}

	var data string
	if err := json.Unmarshal(arr[2], &data); err != nil {
		return Event{}, fmt.Errorf("event data must be a string: %w", err)
	}

	return Event{Time: t, Type: eventType, Data: data}, nil
}

// ToJSON serializes the event to its wire form: [time, code, data].
func (e Event) ToJSON() string {
	b, _ := json.Marshal([]interface{}{e.Time, e.Type.code(), e.Data})
	return string(b)
}

// Write serializes the recording to path.
func (f *File) Write(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return f.WriteTo(out)
}

// WriteTo serializes the recording as NDJSON: header line then one event
// array per line.
func (f *File) WriteTo(w io.Writer) error {
	headerJSON, err := json.Marshal(f.Header)
	if err != nil {
		return fmt.Errorf("serialize header: %w", err)
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(headerJSON); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	for _, e := range f.Events {
		if _, err := bw.WriteString(e.ToJSON()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String renders the recording back to its NDJSON text form.
func (f *File) String() (string, error) {
	var sb strings.Builder
	if err := f.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
