package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"hidream/pkg/types"
)

func TestKindsExcludesCustom(t *testing.T) {
	r := Default()
	got := r.Kinds()
	want := []string{"dev", "full", "fast"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	for _, k := range got {
		if k == types.KindCustom {
			t.Fatalf("custom must not be listed")
		}
	}
}

func TestDescribe(t *testing.T) {
	r := Default()
	cfg, err := r.Describe("fast")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if cfg.Repo != "azaneko/HiDream-I1-Fast-nf4" || cfg.Steps != 16 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	full, _ := r.Describe("full")
	if full.GuidanceScale != 5.0 || full.Scheduler != schedUniPC {
		t.Fatalf("unexpected full cfg: %+v", full)
	}
}

func TestDescribeUnknown(t *testing.T) {
	r := Default()
	for _, k := range []string{"", "custom", "FAST", "turbo"} {
		if _, err := r.Describe(k); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("%q: expected ErrUnknownKind, got %v", k, err)
		}
		if r.IsKnown(k) {
			t.Fatalf("%q reported as known", k)
		}
	}
}

func TestNewOverrides(t *testing.T) {
	r, err := New(map[string]Override{"dev": {Repo: lo.ToPtr("mirror/dev"), Steps: lo.ToPtr(20)}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cfg, _ := r.Describe("dev")
	want := LoadConfig{Repo: "mirror/dev", Quant: "nf4", Scheduler: schedFlashEuler, Steps: 20, Shift: 6.0}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("override mismatch (-want +got):\n%s", diff)
	}
	// defaults are untouched for other registries
	if d, _ := Default().Describe("dev"); d.Repo != "azaneko/HiDream-I1-Dev-nf4" {
		t.Fatalf("default catalog mutated: %+v", d)
	}
}

func TestNewOverridesAcceptZero(t *testing.T) {
	r, err := New(map[string]Override{"full": {GuidanceScale: lo.ToPtr(0.0), Shift: lo.ToPtr(0.0)}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cfg, _ := r.Describe("full")
	if cfg.GuidanceScale != 0 || cfg.Shift != 0 || cfg.Steps != 50 || cfg.Scheduler != schedUniPC {
		t.Fatalf("zero overrides not applied: %+v", cfg)
	}
}

func TestNewRejectsUnloadableOverrides(t *testing.T) {
	for name, ov := range map[string]Override{
		"zero steps":     {Steps: lo.ToPtr(0)},
		"empty repo":     {Repo: lo.ToPtr(" ")},
		"empty sched":    {Scheduler: lo.ToPtr("")},
		"negative scale": {GuidanceScale: lo.ToPtr(-1.0)},
		"negative shift": {Shift: lo.ToPtr(-0.5)},
	} {
		if _, err := New(map[string]Override{"fast": ov}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewRejectsNewKinds(t *testing.T) {
	if _, err := New(map[string]Override{"turbo": {Repo: lo.ToPtr("x")}}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestModels(t *testing.T) {
	ms := Default().Models()
	if len(ms) != 3 {
		t.Fatalf("expected 3 models, got %d", len(ms))
	}
	if ms[2].Kind != "fast" || ms[2].Quant != "nf4" {
		t.Fatalf("unexpected entry: %+v", ms[2])
	}
}
