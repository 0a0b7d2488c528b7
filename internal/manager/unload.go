package manager

import (
	"context"
	"fmt"

	"hidream/pkg/types"
)

// Unload releases the resident pipeline, if any. It waits for the slot so an
// in-flight generation finishes first. Unloading with nothing resident is a no-op.
func (m *Manager) Unload(ctx context.Context) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	m.unloadCurrent(ctx)
	return nil
}

// Close stops admitting work and releases the resident pipeline once the
// current holder of the slot is done. Requests still queued, and background
// switches that have not started loading, fail with ErrClosed. Close is
// idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.log.Info().Str("event", "manager_closed").Msg("manager closed, draining")

	// Take the slot directly: the drain must not be refused by queue
	// limits or MaxWait.
	m.slot <- struct{}{}
	defer func() { <-m.slot }()
	m.unloadCurrent(context.Background())
	return nil
}

// unloadCurrent releases whatever is resident. Must hold the slot.
func (m *Manager) unloadCurrent(ctx context.Context) {
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()
	if cur != nil {
		m.releaseLocked(ctx, cur)
	}
}

// releaseLocked tears down cur and clears residency. Must hold the slot.
// Runtime errors are logged and published but never returned: after this
// call no model is considered resident.
func (m *Manager) releaseLocked(ctx context.Context, cur *resident) {
	m.publish("unload_start", cur.desc, nil)
	m.unloadQuietly(ctx, cur.desc, cur.pipeline)

	m.mu.Lock()
	if m.cur == cur {
		m.cur = nil
		if m.state != StateLoading {
			m.state = StateNoModel
		}
	}
	m.unloads++
	m.mu.Unlock()
	unloadsTotal.Inc()
	residentModel.WithLabelValues(cur.desc.Kind).Set(0)
	m.log.Info().Str("event", "unload_done").Str("model", cur.desc.String()).Msg("model unloaded")
	m.publish("unload_done", cur.desc, nil)
}

func (m *Manager) unloadQuietly(ctx context.Context, d types.ModelDescriptor, p Pipeline) {
	if p == nil || m.runtime == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("runtime panic: %v", r)
			}
		}()
		return m.runtime.Unload(ctx, p)
	}()
	if err != nil {
		m.log.Warn().Str("event", "unload_error").Str("model", d.String()).Str("pipeline", p.ID()).Err(err).Msg("unload failed")
		m.publish("unload_error", d, map[string]any{"error": err.Error()})
	}
}
