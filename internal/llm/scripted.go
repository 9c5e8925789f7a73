package llm

import (
	"context"
	"sync"
)

// Turn is one scripted model reply: text chunks followed by tool calls.
type Turn struct {
	Chunks []*Chunk
}

// ScriptedProvider replays canned turns in order. It backs the pipeline and
// loop tests without any network.
type ScriptedProvider struct {
	mu    sync.Mutex
	turns []Turn
	calls []*Request
}

// NewScriptedProvider creates a provider that replays the turns in order.
// Requests past the script return an immediate Done.
func NewScriptedProvider(turns ...Turn) *ScriptedProvider {
	return &ScriptedProvider{turns: turns}
}

// Requests returns every request seen so far.
func (p *ScriptedProvider) Requests() []*Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Request(nil), p.calls...)
}

func (p *ScriptedProvider) Stream(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	var turn Turn
	if len(p.turns) > 0 {
		turn = p.turns[0]
		p.turns = p.turns[1:]
	}
	p.mu.Unlock()

	chunks := make(chan *Chunk)
	go func() {
		defer close(chunks)
		for _, c := range turn.Chunks {
			select {
			case chunks <- c:
			case <-ctx.Done():
				return
			}
			if c.Done || c.Err != nil {
				return
			}
		}
		select {
		case chunks <- &Chunk{Done: true}:
		case <-ctx.Done():
		}
	}()
	return chunks, nil
}

// TextTurn scripts a plain streamed reply split into the given deltas.
func TextTurn(deltas ...string) Turn {
	t := Turn{}
	for _, d := range deltas {
		t.Chunks = append(t.Chunks, &Chunk{Text: d})
	}
	t.Chunks = append(t.Chunks, &Chunk{Done: true})
	return t
}
