// Package runtimetest provides an in-process diffusion worker for tests.
package runtimetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Worker is a fake diffusion worker speaking the pipeline protocol. It
// renders a flat PNG of the requested size whose shade depends on the seed.
type Worker struct {
	*httptest.Server

	mu        sync.Mutex
	next      int
	live      map[string]string
	pending   map[string]bool
	running   int
	loads     []string
	unloads   []string
	maxLive   int
	lastSeed  int64
	lastModel string
	delay     time.Duration
	loadDelay time.Duration

	// FailLoad makes every load return 500 with this message.
	FailLoad string
	// FailGenerate makes every generation return 500 with this message.
	FailGenerate string
}

// NewWorker starts a fake worker. It is closed on Close.
func NewWorker() *Worker {
	w := &Worker{live: map[string]string{}, pending: map[string]bool{}}
	r := chi.NewRouter()
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) { rw.WriteHeader(http.StatusOK) })
	r.Post("/v1/pipelines", w.load)
	r.Delete("/v1/pipelines/{id}", w.unload)
	r.Post("/v1/pipelines/{id}/generate", w.generate)
	w.Server = httptest.NewServer(r)
	return w
}

// load finishes even when the client goes away, like a real worker. A
// delete that arrives while the load runs cancels it: the pipeline is
// discarded instead of becoming live.
func (w *Worker) load(rw http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string  `json:"id"`
		Kind      string  `json:"kind"`
		Path      string  `json:"path"`
		Scheduler string  `json:"scheduler"`
		Steps     int     `json:"steps"`
		Guidance  float64 `json:"guidance_scale"`
		Shift     float64 `json:"shift"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	desc := req.Kind
	if req.Path != "" {
		desc += ":" + req.Path
	}
	w.loads = append(w.loads, desc)
	if w.FailLoad != "" {
		msg := w.FailLoad
		w.mu.Unlock()
		http.Error(rw, msg, http.StatusInternalServerError)
		return
	}
	id := req.ID
	if id == "" {
		w.next++
		id = fmt.Sprintf("pl-%d", w.next)
	}
	w.pending[id] = true
	w.running++
	delay := w.loadDelay
	w.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.running--
	if !w.pending[id] {
		w.unloads = append(w.unloads, id)
		http.Error(rw, "load canceled", http.StatusConflict)
		return
	}
	delete(w.pending, id)
	if req.Scheduler == "" {
		req.Scheduler, req.Steps, req.Shift = "FlashFlowMatchEulerDiscreteScheduler", 28, 6.0
	}
	w.live[id] = desc
	if len(w.live) > w.maxLive {
		w.maxLive = len(w.live)
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(map[string]any{
		"id": id,
		"config": map[string]any{
			"kind": req.Kind, "scheduler": req.Scheduler, "steps": req.Steps,
			"guidance_scale": req.Guidance, "shift": req.Shift,
		},
	})
}

func (w *Worker) unload(rw http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[id] {
		delete(w.pending, id)
		rw.WriteHeader(http.StatusAccepted)
		return
	}
	if _, ok := w.live[id]; !ok {
		http.Error(rw, "unknown pipeline", http.StatusNotFound)
		return
	}
	delete(w.live, id)
	w.unloads = append(w.unloads, id)
	rw.WriteHeader(http.StatusNoContent)
}

func (w *Worker) generate(rw http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Height int    `json:"height"`
		Width  int    `json:"width"`
		Seed   int64  `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	_, ok := w.live[id]
	fail := w.FailGenerate
	delay := w.delay
	w.lastSeed, w.lastModel = req.Seed, req.Model
	w.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		http.Error(rw, "unknown pipeline", http.StatusNotFound)
		return
	}
	if fail != "" {
		http.Error(rw, fail, http.StatusInternalServerError)
		return
	}
	if req.Height <= 0 || req.Width <= 0 {
		http.Error(rw, "bad size", http.StatusBadRequest)
		return
	}
	img := image.NewGray(image.Rect(0, 0, req.Width, req.Height))
	shade := color.Gray{Y: uint8(req.Seed % 256)}
	for i := range img.Pix {
		img.Pix[i] = shade.Y
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "image/png")
	_, _ = rw.Write(buf.Bytes())
}

// Loads returns the load requests seen so far as "kind" or "kind:path".
func (w *Worker) Loads() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.loads...)
}

// Unloads returns the pipeline ids released so far.
func (w *Worker) Unloads() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.unloads...)
}

// Live returns the number of currently loaded pipelines.
func (w *Worker) Live() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.live)
}

// MaxLive returns the peak number of simultaneously loaded pipelines.
func (w *Worker) MaxLive() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxLive
}

// LastSeed returns the seed of the most recent generation request.
func (w *Worker) LastSeed() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeed
}

// LastModel returns the model kind of the most recent generation request.
func (w *Worker) LastModel() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastModel
}

// SetFailures configures load and generate failures; empty clears them.
func (w *Worker) SetFailures(load, generate string) {
	w.mu.Lock()
	w.FailLoad, w.FailGenerate = load, generate
	w.mu.Unlock()
}

// SetGenerateDelay makes every generation take at least d.
func (w *Worker) SetGenerateDelay(d time.Duration) {
	w.mu.Lock()
	w.delay = d
	w.mu.Unlock()
}

// SetLoadDelay makes every load take at least d.
func (w *Worker) SetLoadDelay(d time.Duration) {
	w.mu.Lock()
	w.loadDelay = d
	w.mu.Unlock()
}

// Loading returns the number of loads still in progress.
func (w *Worker) Loading() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
