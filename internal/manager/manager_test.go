package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hidream/internal/resolve"
	"hidream/pkg/types"
)

func TestNewWithConfig_Defaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{MaxWait: -time.Second})
	if m.maxQueueDepth != defaultMaxQueueDepth {
		t.Fatalf("maxQueueDepth=%d", m.maxQueueDepth)
	}
	if cap(m.queue) != defaultMaxQueueDepth+1 || cap(m.slot) != 1 {
		t.Fatalf("unexpected channel capacities: queue=%d slot=%d", cap(m.queue), cap(m.slot))
	}
	if m.maxWait != 0 {
		t.Fatalf("negative MaxWait should clamp to 0")
	}
	if len(m.ListModels()) != 3 {
		t.Fatalf("expected default registry with 3 models")
	}
	if m.Snapshot().State != StateNoModel {
		t.Fatalf("expected initial state no_model")
	}
}

func TestManager_ResolveUsesRegistry(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	got, err := m.Resolve(types.RawRequest{ModelKind: "full", Prompt: "x", Resolution: "768x1360"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Model.Kind != types.KindFull || got.Resolution.Width != 1360 {
		t.Fatalf("unexpected request: %+v", got)
	}
	_, err = m.Resolve(types.RawRequest{ModelKind: "turbo", Prompt: "x", Resolution: "1024x1024"})
	if !resolve.IsValidation(err) || Kind(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNeedsReload(t *testing.T) {
	dev := &resident{desc: types.Predefined(types.KindDev)}
	custom := &resident{desc: types.Custom("/m/a")}
	cases := []struct {
		cur  *resident
		d    types.ModelDescriptor
		want bool
	}{
		{nil, types.Predefined(types.KindDev), true},
		{dev, types.Predefined(types.KindDev), false},
		{dev, types.Predefined(types.KindFast), true},
		{dev, types.Custom("/m/a"), true},
		{custom, types.Custom("/m/a"), false},
		{custom, types.Custom("/m/A"), true},
		{custom, types.Predefined(types.KindDev), true},
	}
	for i, c := range cases {
		if got := needsReload(c.cur, c.d); got != c.want {
			t.Fatalf("case %d: needsReload=%v want %v", i, got, c.want)
		}
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&resolve.ValidationError{Code: resolve.CodeEmptyPrompt}, KindValidation},
		{fmt.Errorf("wrap: %w", &LoadError{Model: types.Predefined("dev"), Cause: errors.New("x")}), KindLoad},
		{&GenerationError{Cause: errors.New("x")}, KindGeneration},
		{tooBusyError{reason: "queue full"}, KindBusy},
		{context.Canceled, KindCanceled},
		{errors.New("other"), KindInternal},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Fatalf("Kind(%v)=%q want %q", c.err, got, c.want)
		}
	}
}

func TestCryptoSeeds_NonNegative(t *testing.T) {
	var s CryptoSeeds
	for i := 0; i < 100; i++ {
		if v := s.Seed(); v < 0 {
			t.Fatalf("negative seed %d", v)
		}
	}
}

func TestSwitch_BackgroundLoadOutlivesCaller(t *testing.T) {
	rt := newFakeRuntime()
	m := newTestManager(t, rt)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	op, err := m.Switch(ctx, types.Predefined(types.KindFast))
	if err != nil || op == "" {
		t.Fatalf("Switch returned op=%q err=%v", op, err)
	}
	waitFor(t, m.Ready)
	if snap := m.Snapshot(); snap.Model.Kind != types.KindFast {
		t.Fatalf("expected fast resident, got %+v", snap)
	}
}

func TestSwitch_UnknownKind(t *testing.T) {
	m := newTestManager(t, newFakeRuntime())
	if _, err := m.Switch(context.Background(), types.Predefined("turbo")); !IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

type healthyRuntime struct {
	*fakeRuntime
	err error
}

func (h healthyRuntime) Health(context.Context) error { return h.err }

func TestSanityCheck(t *testing.T) {
	if r := NewWithConfig(ManagerConfig{}).SanityCheck(context.Background()); r.RuntimeConfigured || r.Error == "" {
		t.Fatalf("expected unconfigured report, got %+v", r)
	}
	if r := newTestManager(t, newFakeRuntime()).SanityCheck(context.Background()); !r.RuntimeHealthy {
		t.Fatalf("runtime without health check should be assumed healthy: %+v", r)
	}
	down := healthyRuntime{fakeRuntime: newFakeRuntime(), err: errors.New("connection refused")}
	if r := newTestManager(t, down).SanityCheck(context.Background()); r.RuntimeHealthy || r.Error != "connection refused" {
		t.Fatalf("expected unhealthy report, got %+v", r)
	}
}
