package asciicast

import "testing"

func TestParseStringRoundTrip(t *testing.T) {
	input := `{"version":3,"width":80,"height":24}
[0.1,"o","hello"]
[0.2,"o","world"]
`
	cast, err := ParseString(input)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if cast.Header.Version != 3 {
		t.Fatalf("expected version 3, got %d", cast.Header.Version)
	}
	if len(cast.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(cast.Events))
	}
	if cast.Events[0].Data != "hello" || cast.Events[1].Data != "world" {
		t.Fatalf("unexpected event data: %+v", cast.Events)
	}

	out, err := cast.String()
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	cast2, err := ParseString(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(cast2.Events) != 2 {
		t.Fatalf("round trip lost events: %+v", cast2.Events)
	}
}

func TestParseRejectsWrongVersion(t *testing.T) {
	_, err := ParseString(`{"version":2}` + "\n")
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	input := "{\"version\":3}\n\n[0.1,\"o\",\"a\"]\n\n"
	cast, err := ParseString(input)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if len(cast.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(cast.Events))
	}
}

func TestParseRejectsShortEventArray(t *testing.T) {
	input := "{\"version\":3}\n[0.1,\"o\"]\n"
	_, err := ParseString(input)
	if err == nil {
		t.Fatal("expected error for short event array")
	}
}

func TestParseRejectsUnknownEventCode(t *testing.T) {
	input := "{\"version\":3}\n[0.1,\"z\",\"x\"]\n"
	_, err := ParseString(input)
	if err == nil {
		t.Fatal("expected error for unknown event code")
	}
}

func TestEventToJSON(t *testing.T) {
	e := NewOutput(0.5, "hi")
	got := e.ToJSON()
	want := `[0.5,"o","hi"]`
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCumulativeTimesAndInsertionIndex(t *testing.T) {
	f := NewFile(Header{Version: 3})
	f.Events = []Event{
		NewOutput(0.1, "hello"),
		NewOutput(0.2, " world"),
		NewOutput(0.3, "!"),
	}
	times := f.CumulativeTimes()
	want := []float64{0.1, 0.3, 0.6}
	for i, w := range want {
		if diff := times[i] - w; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("cumulative[%d] = %v, want %v", i, times[i], w)
		}
	}

	if idx := f.FindInsertionIndex(0.15); idx != 1 {
		t.Fatalf("FindInsertionIndex(0.15) = %d, want 1", idx)
	}
	if idx := f.FindInsertionIndex(1.0); idx != 3 {
		t.Fatalf("FindInsertionIndex(1.0) = %d, want 3", idx)
	}
}
