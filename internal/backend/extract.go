package backend

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// codeFencePatterns are the markdown code-fence openers tried, in order,
// when hunting for embedded JSON.
var codeFencePatterns = []string{"```json\n", "```json\r\n", "```\n", "```\r\n"}

// ExtractJSON pulls an AnalysisResponse out of a raw backend response,
// handling (in order): the Claude CLI metadata wrapper, a direct JSON
// object, JSON inside a markdown code fence, and JSON embedded in prose
// (first '{' to last '}').
func ExtractJSON(response string) (AnalysisResponse, error) {
	trimmed := strings.TrimSpace(response)

	if result, ok, err := extractClaudeWrapper(trimmed); ok {
		return result, err
	}

	return extractJSONInner(trimmed)
}

// extractClaudeWrapper recognizes Claude's `{"type":"result",...}` envelope
// and unwraps it. ok is false when trimmed isn't a Claude wrapper at all, in
// which case the caller falls through to the generic extraction path.
func extractClaudeWrapper(trimmed string) (AnalysisResponse, bool, error) {
	if !gjson.Valid(trimmed) {
		return AnalysisResponse{}, false, nil
	}
	parsed := gjson.Parse(trimmed)
	if parsed.Get("type").String() != "result" {
		return AnalysisResponse{}, false, nil
	}

	if parsed.Get("is_error").Bool() {
		msg := parsed.Get("result").String()
		if msg == "" {
			msg = "Claude returned an error"
		}
		return AnalysisResponse{}, true, newJSONExtraction(msg)
	}

	if structured := parsed.Get("structured_output"); structured.Exists() {
		resp, err := parseAnalysisResponseJSON(structured.Raw)
		return resp, true, err
	}

	inner := parsed.Get("result").String()
	if inner == "" {
		return AnalysisResponse{}, false, nil
	}
	resp, err := extractJSONInner(inner)
	return resp, true, err
}

// extractJSONInner tries a direct parse, then a code-fenced block, then the
// outermost '{'...'}' slice of the text.
func extractJSONInner(response string) (AnalysisResponse, error) {
	trimmed := strings.TrimSpace(response)

	if resp, err := parseAnalysisResponseJSON(trimmed); err == nil {
		return resp, nil
	}

	if block, ok := extractFromCodeBlock(trimmed); ok {
		if resp, err := parseAnalysisResponseJSON(block); err == nil {
			return resp, nil
		}
	}

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		if resp, err := parseAnalysisResponseJSON(trimmed[start : end+1]); err == nil {
			return resp, nil
		}
	}

	return AnalysisResponse{}, newJSONExtraction(response)
}

func extractFromCodeBlock(text string) (string, bool) {
	for _, pattern := range codeFencePatterns {
		start := strings.Index(text, pattern)
		if start < 0 {
			continue
		}
		jsonStart := start + len(pattern)
		end := strings.Index(text[jsonStart:], "```")
		if end < 0 {
			continue
		}
		return text[jsonStart : jsonStart+end], true
	}
	return "", false
}

// markerSchema is the wire shape of the {"markers":[...]} response, used
// only to decode into RawMarker (whose Category needs string->enum
// translation gjson's plain Unmarshal wouldn't give us).
type markerSchema struct {
	Markers []struct {
		Timestamp float64 `json:"timestamp"`
		Label     string  `json:"label"`
		Category  string  `json:"category"`
	} `json:"markers"`
}

func parseAnalysisResponseJSON(raw string) (AnalysisResponse, error) {
	if !gjson.Valid(raw) {
		return AnalysisResponse{}, newJSONExtraction(raw)
	}
	if !gjson.Get(raw, "markers").Exists() {
		return AnalysisResponse{}, newJSONExtraction(raw)
	}
	var schema markerSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return AnalysisResponse{}, &BackendError{Kind: ErrJSONParse, Err: err}
	}
	markers := make([]RawMarker, len(schema.Markers))
	for i, m := range schema.Markers {
		cat, ok := ParseMarkerCategory(m.Category)
		if !ok {
			return AnalysisResponse{}, &BackendError{Kind: ErrJSONParse, Err: errUnknownCategory(m.Category)}
		}
		markers[i] = RawMarker{Timestamp: m.Timestamp, Label: m.Label, Category: cat}
	}
	return AnalysisResponse{Markers: markers}, nil
}

type errUnknownCategory string

func (e errUnknownCategory) Error() string {
	return "unknown marker category: " + string(e)
}
