package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hidream/pkg/types"
)

// Ensure makes d the resident model, loading it if needed. It waits for the
// resident slot like any generation request.
func (m *Manager) Ensure(ctx context.Context, d types.ModelDescriptor) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	_, err = m.ensureLocked(ctx, d)
	return err
}

// ensureLocked must be called while holding the slot.
func (m *Manager) ensureLocked(ctx context.Context, d types.ModelDescriptor) (Pipeline, error) {
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()
	if !needsReload(cur, d) {
		m.mu.Lock()
		cur.lastUsed = time.Now()
		m.mu.Unlock()
		return cur.pipeline, nil
	}

	if m.runtime == nil {
		return nil, ErrDependencyUnavailable("model runtime not configured")
	}
	// Once teardown starts the switch runs to completion or failure: the
	// caller going away must not abandon a pipeline half-loaded in the
	// runtime. The runtime's own load timeout still applies.
	ctx = context.WithoutCancel(ctx)
	startTs := time.Now()
	m.log.Info().Str("event", "ensure_start").Str("model", d.String()).Msg("switching model")
	m.publish("ensure_start", d, nil)

	var load func() (Pipeline, LoadedConfig, error)
	if d.IsCustom() {
		load = func() (Pipeline, LoadedConfig, error) { return m.runtime.LoadCustom(ctx, d.Path) }
	} else {
		cfg, err := m.registry.Describe(d.Kind)
		if err != nil {
			// Residency is untouched: nothing was torn down yet.
			m.publish("ensure_model_not_found", d, nil)
			return nil, modelNotFoundError{kind: d.Kind}
		}
		load = func() (Pipeline, LoadedConfig, error) { return m.runtime.LoadPredefined(ctx, d.Kind, cfg) }
	}

	m.setState(StateLoading)
	if cur != nil {
		m.releaseLocked(ctx, cur)
	}

	m.log.Info().Str("event", "load_start").Str("model", d.String()).Msg("loading model")
	m.publish("load_start", d, nil)
	p, lc, err := safeLoad(load)
	if err == nil && p == nil {
		err = errors.New("runtime returned no pipeline")
	}
	if err == nil {
		if verr := lc.Validate(); verr != nil {
			// Partial success: a handle exists but is unusable. Release it so
			// nothing half-initialized stays reachable.
			m.unloadQuietly(ctx, d, p)
			err = fmt.Errorf("invalid pipeline config: %w", verr)
		}
	}
	if err != nil {
		lerr := &LoadError{Model: d, Cause: err}
		m.mu.Lock()
		m.cur = nil
		m.state = StateNoModel
		m.mu.Unlock()
		m.recordErr(lerr)
		loadFailures.WithLabelValues(d.Kind).Inc()
		m.log.Error().Str("event", "load_failed").Str("model", d.String()).Err(err).Msg("model load failed")
		m.publish("load_failed", d, map[string]any{"error": err.Error()})
		return nil, lerr
	}

	now := time.Now()
	m.mu.Lock()
	m.cur = &resident{desc: d, pipeline: p, config: lc, loadedAt: now, lastUsed: now}
	m.state = StateReady
	m.loads++
	m.err, m.errKind = "", ""
	m.mu.Unlock()

	dur := time.Since(startTs)
	loadsTotal.WithLabelValues(d.Kind).Inc()
	loadDuration.WithLabelValues(d.Kind).Observe(dur.Seconds())
	residentModel.WithLabelValues(d.Kind).Set(1)
	m.log.Info().Str("event", "ensure_ready").Str("model", d.String()).Str("pipeline", p.ID()).
		Dur("dur", dur).Msg("model ready")
	m.publish("ensure_ready", d, map[string]any{"dur_ms": int(dur / time.Millisecond), "pipeline": p.ID()})
	return p, nil
}

// safeLoad turns a panicking runtime load into an error.
func safeLoad(load func() (Pipeline, LoadedConfig, error)) (p Pipeline, lc LoadedConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return load()
}
