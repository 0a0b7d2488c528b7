package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hidream/internal/httpapi"
	"hidream/internal/manager"
	"hidream/internal/registry"
	"hidream/internal/runtime"
	"hidream/internal/runtime/runtimetest"
	"hidream/pkg/types"
)

// stack is the full server path: HTTP API, manager, worker client and a
// fake diffusion worker.
type stack struct {
	srv    *httptest.Server
	mgr    *manager.Manager
	worker *runtimetest.Worker
}

func newStack(t *testing.T, cfg manager.ManagerConfig) *stack {
	t.Helper()
	w := runtimetest.NewWorker()
	t.Cleanup(w.Close)
	rt, err := runtime.NewWorkerClient(w.URL, runtime.Options{RequestTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("worker client: %v", err)
	}
	cfg.Registry = registry.Default()
	cfg.Runtime = rt
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = mgr.Close() })
	return &stack{srv: srv, mgr: mgr, worker: w}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	return do(t, req)
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func (s *stack) status(t *testing.T) types.StatusResponse {
	t.Helper()
	resp, body := httpGet(t, s.srv.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("status json: %v", err)
	}
	return st
}

func (s *stack) generate(t *testing.T, payload string) (int, types.GenerateResponse, types.ErrorResponse) {
	t.Helper()
	resp, body := httpPostJSON(t, s.srv.URL+"/v1/generate", payload)
	var ok types.GenerateResponse
	var fail types.ErrorResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, &ok); err != nil {
			t.Fatalf("generate json: %v", err)
		}
	} else {
		if err := json.Unmarshal(body, &fail); err != nil {
			t.Fatalf("error json: %v (%s)", err, body)
		}
	}
	return resp.StatusCode, ok, fail
}
