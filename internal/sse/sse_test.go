package sse

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEmitterFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	e, err := NewEmitter(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Emit("delta", map[string]string{"delta": "hi"}); err != nil {
		t.Fatal(err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: delta\ndata: {\"delta\":\"hi\"}\n\n") {
		t.Errorf("unexpected framing: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream; charset=utf-8" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("buffering header = %q", got)
	}
}

func TestParserSkipsPings(t *testing.T) {
	stream := "event: ping\ndata: {}\n\nevent: done\ndata: {\"ok\":true}\n\n"
	events, err := NewParser(strings.NewReader(stream)).All()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "done" {
		t.Errorf("events = %+v", events)
	}
}

func TestParserDefaultsToMessage(t *testing.T) {
	events, err := NewParser(strings.NewReader("data: x\n\n")).All()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "message" || string(events[0].Data) != "x" {
		t.Errorf("events = %+v", events)
	}
}

func TestParserSkipsEmptyDataLines(t *testing.T) {
	events, err := NewParser(strings.NewReader("event: delta\ndata:\ndata: x\n\n")).All()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || string(events[0].Data) != "x" {
		t.Errorf("events = %+v", events)
	}
}

// Emitting a sequence and re-parsing it yields the same sequence modulo
// heartbeats.
func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	nameGen := gen.OneConstOf("delta", "tool-call", "tool-result", "done", "error", "agent.plan")
	payloadGen := gen.RegexMatch(`[a-zA-Z0-9 ]{0,40}`)

	properties.Property("round trip preserves order and content", prop.ForAll(
		func(names []string, payloads []string) bool {
			n := len(names)
			if len(payloads) < n {
				n = len(payloads)
			}
			rec := httptest.NewRecorder()
			e, err := NewEmitter(rec)
			if err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				if err := e.Emit(names[i], map[string]string{"v": payloads[i]}); err != nil {
					return false
				}
				if i%3 == 0 {
					if err := e.Ping(); err != nil {
						return false
					}
				}
			}
			parsed, err := NewParser(bytes.NewReader(rec.Body.Bytes())).All()
			if err != nil {
				return false
			}
			if len(parsed) != n {
				return false
			}
			for i := 0; i < n; i++ {
				if parsed[i].Name != names[i] {
					return false
				}
				if !strings.Contains(string(parsed[i].Data), payloads[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(nameGen),
		gen.SliceOf(payloadGen),
	))

	properties.TestingRun(t)
}
