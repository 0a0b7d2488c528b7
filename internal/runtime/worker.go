// Package runtime implements manager.Runtime against a diffusion worker
// process over HTTP. The worker owns the weights and the accelerator; this
// package only moves requests and PNG bytes.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hidream/internal/manager"
	"hidream/internal/registry"
	"hidream/pkg/types"
)

// maxImageBytes bounds a generated PNG read from the worker.
const maxImageBytes = 64 << 20

// reclaimTimeout bounds the release of an abandoned load when no request
// timeout is configured.
const reclaimTimeout = 30 * time.Second

// WorkerClient talks to a running diffusion worker.
//
// Pipeline ids are chosen by the client and sent with the load request. When
// a load fails on the client side (timeout, dropped connection, bad reply)
// the client deletes that id. The worker treats a delete of a pipeline that
// is still loading as a cancellation and discards it when the load finishes,
// so an abandoned load never stays resident.
type WorkerClient struct {
	baseURL    string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// Options tunes a WorkerClient. Zero values pick defaults.
type Options struct {
	// RequestTimeout bounds each worker call. Loads and generations can take
	// minutes, so zero means no client-side bound beyond the caller's context.
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	Logger         *zerolog.Logger
}

// NewWorkerClient constructs a client for the worker at baseURL.
func NewWorkerClient(baseURL string, opts Options) (*WorkerClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid worker url %q", baseURL)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &WorkerClient{
		baseURL:    strings.TrimRight(u.String(), "/"),
		reqTimeout: opts.RequestTimeout,
		// Timeout stays 0: deadlines come from the request context.
		httpClient: &http.Client{Transport: tr},
		log:        zerolog.Nop(),
	}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("component", "worker").Logger()
	}
	return c, nil
}

// BaseURL returns the normalized worker address.
func (c *WorkerClient) BaseURL() string { return c.baseURL }

// workerPipeline is the handle for a pipeline living inside the worker.
type workerPipeline struct {
	id   string
	kind string
}

func (p workerPipeline) ID() string { return p.id }

type loadRequest struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	Path          string  `json:"path,omitempty"`
	Repo          string  `json:"repo,omitempty"`
	Quant         string  `json:"quant,omitempty"`
	Scheduler     string  `json:"scheduler,omitempty"`
	Steps         int     `json:"steps,omitempty"`
	GuidanceScale float64 `json:"guidance_scale,omitempty"`
	Shift         float64 `json:"shift,omitempty"`
}

type loadResponse struct {
	ID     string               `json:"id"`
	Config manager.LoadedConfig `json:"config"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Seed   int64  `json:"seed"`
}

// LoadPredefined asks the worker to load a catalog model.
func (c *WorkerClient) LoadPredefined(ctx context.Context, kind string, cfg registry.LoadConfig) (manager.Pipeline, manager.LoadedConfig, error) {
	return c.load(ctx, loadRequest{
		Kind:          kind,
		Repo:          cfg.Repo,
		Quant:         cfg.Quant,
		Scheduler:     cfg.Scheduler,
		Steps:         cfg.Steps,
		GuidanceScale: cfg.GuidanceScale,
		Shift:         cfg.Shift,
	})
}

// LoadCustom asks the worker to load a model directory. The worker reads
// the pipeline configuration from the directory itself.
func (c *WorkerClient) LoadCustom(ctx context.Context, path string) (manager.Pipeline, manager.LoadedConfig, error) {
	return c.load(ctx, loadRequest{Kind: types.KindCustom, Path: path})
}

func (c *WorkerClient) load(ctx context.Context, lr loadRequest) (manager.Pipeline, manager.LoadedConfig, error) {
	lr.ID = "pl-" + uuid.NewString()
	out, err := c.postLoad(ctx, lr)
	if err != nil {
		c.reclaim(ctx, lr.ID, err)
		if out.ID != "" && out.ID != lr.ID {
			c.reclaim(ctx, out.ID, err)
		}
		return nil, manager.LoadedConfig{}, err
	}
	if out.Config.Kind == "" {
		out.Config.Kind = lr.Kind
	}
	c.log.Debug().Str("event", "pipeline_loaded").Str("kind", lr.Kind).Str("pipeline", out.ID).Msg("worker loaded pipeline")
	return workerPipeline{id: out.ID, kind: lr.Kind}, out.Config, nil
}

func (c *WorkerClient) postLoad(ctx context.Context, lr loadRequest) (loadResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var out loadResponse
	resp, err := c.do(ctx, http.MethodPost, "/v1/pipelines", lr, "application/json")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return out, fmt.Errorf("decode load response: %w", err)
	}
	if out.ID == "" {
		return out, errors.New("worker returned no pipeline id")
	}
	if out.ID != lr.ID {
		return out, fmt.Errorf("worker answered pipeline %q for load %q", out.ID, lr.ID)
	}
	return out, nil
}

// reclaim deletes the pipeline id of a failed load. It runs detached from
// ctx, which may be the reason the load failed.
func (c *WorkerClient) reclaim(ctx context.Context, id string, cause error) {
	timeout := c.reqTimeout
	if timeout <= 0 {
		timeout = reclaimTimeout
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := c.Unload(rctx, workerPipeline{id: id}); err != nil {
		c.log.Warn().Str("event", "reclaim_failed").Str("pipeline", id).AnErr("cause", cause).Err(err).
			Msg("could not release abandoned load")
		return
	}
	c.log.Debug().Str("event", "load_reclaimed").Str("pipeline", id).AnErr("cause", cause).Msg("released abandoned load")
}

// Unload releases a pipeline inside the worker. A pipeline the worker no
// longer knows counts as released.
func (c *WorkerClient) Unload(ctx context.Context, p manager.Pipeline) error {
	if p == nil {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, err := c.do(ctx, http.MethodDelete, "/v1/pipelines/"+url.PathEscape(p.ID()), nil, "")
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil
		}
		return err
	}
	resp.Body.Close()
	return nil
}

// Generate runs one generation and returns the PNG bytes.
func (c *WorkerClient) Generate(ctx context.Context, p manager.Pipeline, params manager.GenerateParams) ([]byte, error) {
	if p == nil {
		return nil, errors.New("nil pipeline")
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	body := generateRequest{
		Model:  params.Kind,
		Prompt: params.Prompt,
		Height: params.Resolution.Height,
		Width:  params.Resolution.Width,
		Seed:   params.Seed,
	}
	resp, err := c.do(ctx, http.MethodPost, "/v1/pipelines/"+url.PathEscape(p.ID())+"/generate", body, "image/png")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(img) > maxImageBytes {
		return nil, fmt.Errorf("worker image exceeds %d bytes", maxImageBytes)
	}
	return img, nil
}

// Health checks that the worker is reachable.
func (c *WorkerClient) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// StatusError is a non-2xx worker response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("worker http %d", e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (c *WorkerClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.reqTimeout > 0 {
		return context.WithTimeout(ctx, c.reqTimeout)
	}
	return ctx, func() {}
}

// do sends a request and returns the response for 2xx statuses. The caller
// closes the body.
func (c *WorkerClient) do(ctx context.Context, method, path string, payload any, accept string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

var (
	_ manager.Runtime       = (*WorkerClient)(nil)
	_ manager.HealthChecker = (*WorkerClient)(nil)
)
