package manager

import (
	"sync"
	"time"
)

// Event is a residency lifecycle notification. Names in use: ensure_start,
// ensure_ready, load_start, load_failed, unload_start, unload_done,
// unload_error, switch_done and generate_done. Model is the descriptor in
// its display form ("dev", "custom:/path").
type Event struct {
	Name   string
	Model  string
	At     time.Time
	Fields map[string]any
}

// EventPublisher receives events synchronously from the manager while no
// manager lock is held. Publish must return quickly.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher records events in order. Used by tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Trace returns "name@model" for each recorded event.
func (p *MemoryPublisher) Trace() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name + "@" + e.Model
	}
	return out
}

// Last returns the most recent event with the given name.
func (p *MemoryPublisher) Last(name string) (Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Name == name {
			return p.events[i], true
		}
	}
	return Event{}, false
}
