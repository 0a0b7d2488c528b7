package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hidream/pkg/types"
)

// Generate serves one request: it waits for the resident slot, makes the
// requested model resident, and runs generation against it. The slot is
// held across both steps so concurrent requests never interleave a switch.
func (m *Manager) Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResult, error) {
	startTs := time.Now()
	release, err := m.acquire(ctx)
	if err != nil {
		return types.GenerationResult{}, err
	}
	defer release()

	p, err := m.ensureLocked(ctx, req.Model)
	if err != nil {
		return types.GenerationResult{}, err
	}

	m.setState(StateGenerating)
	res, err := m.invoke(ctx, p, req)
	m.setState(StateReady)
	if err != nil {
		m.recordErr(err)
		generationsTotal.WithLabelValues("failed").Inc()
		m.log.Error().Str("event", "generate_failed").Str("model", req.Model.String()).Int64("seed", seedOf(err)).
			Err(err).Msg("generation failed")
		m.publish("generate_failed", req.Model, map[string]any{"error": err.Error()})
		return types.GenerationResult{}, err
	}

	m.mu.Lock()
	m.generations++
	if m.cur != nil {
		m.cur.lastUsed = time.Now()
	}
	m.err, m.errKind = "", ""
	m.mu.Unlock()

	res.Duration = time.Since(startTs)
	generationsTotal.WithLabelValues("ok").Inc()
	m.log.Info().Str("event", "generate_done").Str("id", res.ID).Str("model", req.Model.String()).
		Str("resolution", req.Resolution.String()).Int64("seed", res.Seed).Dur("dur", res.Duration).Msg("image generated")
	m.publish("generate_done", req.Model, map[string]any{"id": res.ID, "seed": res.Seed})
	return res, nil
}

// invoke runs one generation against a borrowed pipeline. Any runtime
// failure, panic, or malformed output becomes a GenerationError; the
// pipeline reference is not retained after return.
func (m *Manager) invoke(ctx context.Context, p Pipeline, req types.GenerationRequest) (types.GenerationResult, error) {
	seed, ok := req.Seed.Value()
	if !ok {
		seed = m.seeds.Seed()
	}
	params := GenerateParams{
		Kind:       req.Model.Kind,
		Prompt:     req.Prompt,
		Resolution: req.Resolution,
		Seed:       seed,
	}

	start := time.Now()
	img, err := safeGenerate(ctx, m.runtime, p, params)
	generationDuration.WithLabelValues(req.Model.Kind).Observe(time.Since(start).Seconds())
	if err == nil {
		err = validateImage(img, req.Resolution)
	}
	if err != nil {
		return types.GenerationResult{}, &GenerationError{Model: req.Model, Seed: seed, Cause: err}
	}
	return types.GenerationResult{
		ID:         uuid.NewString(),
		Image:      img,
		Seed:       seed,
		Model:      req.Model,
		Resolution: req.Resolution,
	}, nil
}

func safeGenerate(ctx context.Context, rt Runtime, p Pipeline, params GenerateParams) (img []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return rt.Generate(ctx, p, params)
}

func seedOf(err error) int64 {
	if ge, ok := err.(*GenerationError); ok {
		return ge.Seed
	}
	return -1
}
