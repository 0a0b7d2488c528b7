package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hidream/internal/manager"
	"hidream/pkg/types"
)

type teapotErr struct{}

func (teapotErr) Error() string   { return "short and stout" }
func (teapotErr) StatusCode() int { return http.StatusTeapot }

func TestGenerate_ErrorMapping(t *testing.T) {
	dev := types.Predefined("dev")
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"too busy", manager.ErrTooBusy("queue full"), http.StatusTooManyRequests, "busy"},
		{"load failed", &manager.LoadError{Model: dev, Cause: errors.New("oom")}, http.StatusBadGateway, "load"},
		{"generation failed", &manager.GenerationError{Model: dev, Seed: 1, Cause: errors.New("nan")}, http.StatusInternalServerError, "generation"},
		{"runtime missing", manager.ErrDependencyUnavailable("runtime not configured"), http.StatusServiceUnavailable, "internal"},
		{"shutting down", manager.ErrClosed, http.StatusServiceUnavailable, "internal"},
		{"unknown kind", manager.ErrModelNotFound("turbo"), http.StatusBadRequest, "validation"},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "canceled"},
		{"custom status", teapotErr{}, http.StatusTeapot, "internal"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{genErr: tc.err}
			w := postJSON(t, NewMux(svc), "/v1/generate", `{"model":"dev","prompt":"x"}`)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			var er types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.Kind != tc.kind || er.Code != tc.status || er.Error != tc.err.Error() {
				t.Fatalf("unexpected error body: %+v", er)
			}
		})
	}
}

func TestUnload_TooBusy(t *testing.T) {
	svc := &mockService{unloadErr: manager.ErrTooBusy("generation in flight")}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/model", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Kind != "busy" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
