// Package sse frames server-sent events: an emitter for HTTP handlers and a
// parser for clients and tests.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// PingEvent is the heartbeat event name. Parsers drop it by default.
const PingEvent = "ping"

// Event is one framed server-sent event.
type Event struct {
	Name string
	Data json.RawMessage
}

// Emitter writes events to an HTTP response with immediate flushing.
type Emitter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEmitter prepares the response for event streaming. It fails when the
// writer cannot flush.
func NewEmitter(w http.ResponseWriter) (*Emitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable proxy buffering so events reach the client as they happen.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Emitter{w: w, flusher: flusher}, nil
}

// Emit writes one event. The payload is marshaled to a single data line.
func (e *Emitter) Emit(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", name, err)
	}
	return e.EmitRaw(name, data)
}

// EmitRaw writes one event with pre-encoded data.
func (e *Emitter) EmitRaw(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

// Ping writes a heartbeat.
func (e *Emitter) Ping() error {
	return e.EmitRaw(PingEvent, []byte(`{}`))
}

// KeepAlive pings at the interval until ctx ends. Run it in its own
// goroutine.
func (e *Emitter) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Ping(); err != nil {
				return
			}
		}
	}
}

// Parser reads framed events from a stream.
type Parser struct {
	r         *bufio.Reader
	keepPings bool
}

// NewParser wraps the reader.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: bufio.NewReader(r)}
}

// KeepPings makes Next return heartbeat events instead of dropping them.
func (p *Parser) KeepPings() *Parser {
	p.keepPings = true
	return p
}

// Next returns the next event, or io.EOF at end of stream.
func (p *Parser) Next() (*Event, error) {
	for {
		ev, err := p.readEvent()
		if err != nil {
			return nil, err
		}
		if ev.Name == PingEvent && !p.keepPings {
			continue
		}
		return ev, nil
	}
}

// All drains the stream into a slice.
func (p *Parser) All() ([]*Event, error) {
	var out []*Event
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}

func (p *Parser) readEvent() (*Event, error) {
	var (
		name      string
		dataLines []string
		sawField  bool
	)
	for {
		line, err := p.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && sawField {
				break
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if sawField {
				break
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			sawField = true
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if payload != "" {
				dataLines = append(dataLines, payload)
			}
			sawField = true
		case strings.HasPrefix(line, ":"):
			// comment line, ignored
		}
	}
	if name == "" {
		name = "message"
	}
	return &Event{Name: name, Data: json.RawMessage(strings.Join(dataLines, "\n"))}, nil
}
