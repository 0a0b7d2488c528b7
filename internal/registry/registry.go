// Package registry holds the fixed catalog of predefined HiDream model
// variants and the configuration the runtime needs to load each of them.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"hidream/pkg/types"
)

// ErrUnknownKind is returned by Describe for kinds outside the catalog.
var ErrUnknownKind = errors.New("unknown model kind")

// LoadConfig is what the runtime needs to materialize a predefined pipeline.
type LoadConfig struct {
	Repo          string  `json:"repo" yaml:"repo" toml:"repo"`
	Quant         string  `json:"quant" yaml:"quant" toml:"quant"`
	Scheduler     string  `json:"scheduler" yaml:"scheduler" toml:"scheduler"`
	Steps         int     `json:"steps" yaml:"steps" toml:"steps"`
	GuidanceScale float64 `json:"guidance_scale" yaml:"guidance_scale" toml:"guidance_scale"`
	Shift         float64 `json:"shift" yaml:"shift" toml:"shift"`
}

// Override replaces individual catalog fields. Nil fields keep the built-in
// value, so zero is a valid override (guidance_scale: 0 disables CFG).
type Override struct {
	Repo          *string  `json:"repo,omitempty" yaml:"repo" toml:"repo"`
	Quant         *string  `json:"quant,omitempty" yaml:"quant" toml:"quant"`
	Scheduler     *string  `json:"scheduler,omitempty" yaml:"scheduler" toml:"scheduler"`
	Steps         *int     `json:"steps,omitempty" yaml:"steps" toml:"steps"`
	GuidanceScale *float64 `json:"guidance_scale,omitempty" yaml:"guidance_scale" toml:"guidance_scale"`
	Shift         *float64 `json:"shift,omitempty" yaml:"shift" toml:"shift"`
}

const (
	schedFlashEuler = "FlashFlowMatchEulerDiscreteScheduler"
	schedUniPC      = "FlowUniPCMultistepScheduler"
)

// order is the listing order; custom is never part of it.
var order = []string{types.KindDev, types.KindFull, types.KindFast}

var defaults = map[string]LoadConfig{
	types.KindDev: {
		Repo:          "azaneko/HiDream-I1-Dev-nf4",
		Quant:         "nf4",
		Scheduler:     schedFlashEuler,
		Steps:         28,
		GuidanceScale: 0.0,
		Shift:         6.0,
	},
	types.KindFull: {
		Repo:          "azaneko/HiDream-I1-Full-nf4",
		Quant:         "nf4",
		Scheduler:     schedUniPC,
		Steps:         50,
		GuidanceScale: 5.0,
		Shift:         3.0,
	},
	types.KindFast: {
		Repo:          "azaneko/HiDream-I1-Fast-nf4",
		Quant:         "nf4",
		Scheduler:     schedFlashEuler,
		Steps:         16,
		GuidanceScale: 0.0,
		Shift:         3.0,
	},
}

// Registry is a read-only catalog. The zero value is not usable; use Default or New.
type Registry struct {
	configs map[string]LoadConfig
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, _ := New(nil)
	return r
}

// New builds a catalog from the defaults with overrides applied field by
// field. Overrides may not introduce new kinds, and the result must still be
// loadable: a non-empty repo and scheduler, positive steps, non-negative
// guidance and shift.
func New(overrides map[string]Override) (*Registry, error) {
	cfgs := make(map[string]LoadConfig, len(defaults))
	for k, v := range defaults {
		cfgs[k] = v
	}
	for kind, ov := range overrides {
		base, ok := cfgs[kind]
		if !ok {
			return nil, fmt.Errorf("override for %q: %w (known: %s)", kind, ErrUnknownKind, strings.Join(order, ", "))
		}
		merged := ov.apply(base)
		if err := merged.check(); err != nil {
			return nil, fmt.Errorf("override for %q: %w", kind, err)
		}
		cfgs[kind] = merged
	}
	return &Registry{configs: cfgs}, nil
}

func (ov Override) apply(base LoadConfig) LoadConfig {
	if ov.Repo != nil {
		base.Repo = *ov.Repo
	}
	if ov.Quant != nil {
		base.Quant = *ov.Quant
	}
	if ov.Scheduler != nil {
		base.Scheduler = *ov.Scheduler
	}
	if ov.Steps != nil {
		base.Steps = *ov.Steps
	}
	if ov.GuidanceScale != nil {
		base.GuidanceScale = *ov.GuidanceScale
	}
	if ov.Shift != nil {
		base.Shift = *ov.Shift
	}
	return base
}

func (c LoadConfig) check() error {
	switch {
	case strings.TrimSpace(c.Repo) == "":
		return errors.New("repo must not be empty")
	case strings.TrimSpace(c.Scheduler) == "":
		return errors.New("scheduler must not be empty")
	case c.Steps <= 0:
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	case c.GuidanceScale < 0:
		return fmt.Errorf("guidance_scale must not be negative, got %g", c.GuidanceScale)
	case c.Shift < 0:
		return fmt.Errorf("shift must not be negative, got %g", c.Shift)
	}
	return nil
}

// Describe returns the loading configuration for a predefined kind.
func (r *Registry) Describe(kind string) (LoadConfig, error) {
	cfg, ok := r.configs[kind]
	if !ok {
		return LoadConfig{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return cfg, nil
}

// IsKnown reports whether kind is a predefined kind.
func (r *Registry) IsKnown(kind string) bool {
	_, ok := r.configs[kind]
	return ok
}

// Kinds lists the predefined kinds in display order. It never includes custom.
func (r *Registry) Kinds() []string {
	return lo.Filter(order, func(k string, _ int) bool { return k != types.KindCustom && r.IsKnown(k) })
}

// Models lists the predefined models for front ends.
func (r *Registry) Models() []types.ModelInfo {
	return lo.Map(r.Kinds(), func(k string, _ int) types.ModelInfo {
		c := r.configs[k]
		return types.ModelInfo{
			Kind:          k,
			Repo:          c.Repo,
			Quant:         c.Quant,
			Scheduler:     c.Scheduler,
			Steps:         c.Steps,
			GuidanceScale: c.GuidanceScale,
			Shift:         c.Shift,
		}
	})
}
