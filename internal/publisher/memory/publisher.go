// Package memory contains an in-memory publisher for tests and dry runs.
package memory

import (
	"context"
	"sync"
)

// Publisher stores published reports for inspection.
type Publisher struct {
	mu       sync.RWMutex
	messages []string
	err      error
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish call return err without recording.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the message.
func (p *Publisher) Publish(_ context.Context, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

// Messages returns the recorded reports.
func (p *Publisher) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.messages))
	copy(out, p.messages)
	return out
}
