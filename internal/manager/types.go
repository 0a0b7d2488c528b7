package manager

import (
	"context"
	"errors"
	"time"

	"hidream/internal/registry"
	"hidream/pkg/types"
)

// State represents the lifecycle state of the resident slot.
type State string

const (
	StateNoModel    State = "no_model"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateGenerating State = "generating"
)

// Pipeline is an opaque handle to a loaded pipeline. Only the Runtime that
// produced it knows what is behind it.
type Pipeline interface {
	ID() string
}

// LoadedConfig is the configuration a runtime reports for a loaded pipeline.
type LoadedConfig struct {
	Kind          string  `json:"kind"`
	Repo          string  `json:"repo,omitempty"`
	Quant         string  `json:"quant,omitempty"`
	Scheduler     string  `json:"scheduler"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
	Shift         float64 `json:"shift"`
}

// Validate rejects configs a runtime may return for half-initialized pipelines.
func (c LoadedConfig) Validate() error {
	if c.Scheduler == "" {
		return errors.New("loaded config has no scheduler")
	}
	if c.Steps <= 0 {
		return errors.New("loaded config has no inference steps")
	}
	if c.GuidanceScale < 0 {
		return errors.New("loaded config has negative guidance scale")
	}
	return nil
}

// GenerateParams is one generation call against a loaded pipeline.
type GenerateParams struct {
	Kind       string
	Prompt     string
	Resolution types.Resolution
	Seed       int64
}

// Runtime is the model runtime collaborator. Loads must leave nothing
// reachable on failure. Unload errors are logged by the Manager, never surfaced.
type Runtime interface {
	LoadPredefined(ctx context.Context, kind string, cfg registry.LoadConfig) (Pipeline, LoadedConfig, error)
	LoadCustom(ctx context.Context, path string) (Pipeline, LoadedConfig, error)
	Unload(ctx context.Context, p Pipeline) error
	// Generate returns a PNG-encoded image.
	Generate(ctx context.Context, p Pipeline, params GenerateParams) ([]byte, error)
}

// resident is the currently loaded pipeline and the descriptor it came from.
type resident struct {
	desc     types.ModelDescriptor
	pipeline Pipeline
	config   LoadedConfig
	loadedAt time.Time
	lastUsed time.Time
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State   State
	Model   *types.ModelDescriptor
	Config  *LoadedConfig
	Err     string
	ErrKind string
}
