package manager

import (
	"context"
	"time"
)

// acquire reserves a queue slot and then the single resident slot.
// Returns a release func to be deferred. After Close every caller, including
// one already queued, gets ErrClosed.
func (m *Manager) acquire(ctx context.Context) (func(), error) {
	if m.isClosed() {
		return func() {}, ErrClosed
	}
	release, err := m.admit(ctx)
	if err != nil {
		return release, err
	}
	if m.isClosed() {
		release()
		return func() {}, ErrClosed
	}
	return release, nil
}

// admit does the queue and slot accounting for acquire.
func (m *Manager) admit(ctx context.Context) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	select {
	case m.queue <- struct{}{}:
	default:
		queueRejections.Inc()
		return func() {}, tooBusyError{reason: "queue full"}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-m.queue
		}
	}()

	var timeout <-chan time.Time
	if m.maxWait > 0 {
		timer := time.NewTimer(m.maxWait)
		defer timer.Stop()
		timeout = timer.C
	}
	waitStart := time.Now()
	select {
	case m.slot <- struct{}{}:
		acquired = true
		queueWait.Observe(time.Since(waitStart).Seconds())
		return func() { <-m.slot; <-m.queue }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timeout:
		queueRejections.Inc()
		return func() {}, tooBusyError{reason: "timed out waiting for model slot"}
	}
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
