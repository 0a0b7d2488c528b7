package manager

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"hidream/internal/registry"
	"hidream/pkg/types"
)

// fakePipeline is the handle handed out by fakeRuntime.
type fakePipeline struct {
	id   string
	desc string
}

func (p *fakePipeline) ID() string { return p.id }

// fakeRuntime records every call and tracks which pipelines are live so
// tests can assert residency and ordering.
type fakeRuntime struct {
	mu    sync.Mutex
	calls []string
	live  map[string]*fakePipeline
	next  int
	// maxLive is the largest number of simultaneously live pipelines seen.
	maxLive int

	loadErr     error
	loadPanic   bool
	badConfig   bool
	genErr      error
	genPanic    bool
	unloadErr   error
	image       []byte
	genDelay    time.Duration
	genStarted  chan struct{}
	genRelease  chan struct{}
	lastParams  GenerateParams
	loadedPaths []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{live: map[string]*fakePipeline{}}
}

func (f *fakeRuntime) load(desc string, cfg LoadedConfig) (Pipeline, LoadedConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "load:"+desc)
	if f.loadPanic {
		panic("boom")
	}
	if f.loadErr != nil {
		return nil, LoadedConfig{}, f.loadErr
	}
	f.next++
	p := &fakePipeline{id: fmt.Sprintf("p%d", f.next), desc: desc}
	f.live[p.id] = p
	if len(f.live) > f.maxLive {
		f.maxLive = len(f.live)
	}
	if f.badConfig {
		return p, LoadedConfig{Kind: cfg.Kind}, nil
	}
	return p, cfg, nil
}

func (f *fakeRuntime) LoadPredefined(_ context.Context, kind string, cfg registry.LoadConfig) (Pipeline, LoadedConfig, error) {
	return f.load(kind, LoadedConfig{
		Kind: kind, Repo: cfg.Repo, Quant: cfg.Quant, Scheduler: cfg.Scheduler,
		Steps: cfg.Steps, GuidanceScale: cfg.GuidanceScale, Shift: cfg.Shift,
	})
}

func (f *fakeRuntime) LoadCustom(_ context.Context, path string) (Pipeline, LoadedConfig, error) {
	f.mu.Lock()
	f.loadedPaths = append(f.loadedPaths, path)
	f.mu.Unlock()
	return f.load("custom:"+path, LoadedConfig{
		Kind: types.KindCustom, Scheduler: "FlashFlowMatchEulerDiscreteScheduler", Steps: 28, Shift: 6.0,
	})
}

func (f *fakeRuntime) Unload(_ context.Context, p Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "unload:"+p.ID())
	delete(f.live, p.ID())
	return f.unloadErr
}

func (f *fakeRuntime) Generate(ctx context.Context, p Pipeline, params GenerateParams) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "generate:"+p.ID())
	f.lastParams = params
	_, alive := f.live[p.ID()]
	started, release := f.genStarted, f.genRelease
	delay, genErr, genPanic, img := f.genDelay, f.genErr, f.genPanic, f.image
	f.mu.Unlock()

	if !alive {
		return nil, fmt.Errorf("pipeline %s is not loaded", p.ID())
	}
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if genPanic {
		panic("generate exploded")
	}
	if genErr != nil {
		return nil, genErr
	}
	if img != nil {
		return img, nil
	}
	return encodePNG(params.Resolution.Height, params.Resolution.Width)
}

func (f *fakeRuntime) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRuntime) countPrefix(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeRuntime) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func encodePNG(h, w int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// small keeps encoded test images tiny; the manager does not restrict sizes.
var small = types.Resolution{Height: 16, Width: 24}

func req(d types.ModelDescriptor, seed types.Seed) types.GenerationRequest {
	return types.GenerationRequest{Model: d, Prompt: "a cat", Resolution: small, Seed: seed}
}

func newTestManager(t *testing.T, rt Runtime) *Manager {
	t.Helper()
	return NewWithConfig(ManagerConfig{Runtime: rt, Seeds: FixedSeeds(7)})
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
