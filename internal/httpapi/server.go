package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hidream/internal/resolve"
	"hidream/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.ModelInfo
	Status() types.StatusResponse
	Resolve(raw types.RawRequest) (types.GenerationRequest, error)
	ResolveModel(kind, customPath string) (types.ModelDescriptor, error)
	Generate(ctx context.Context, req types.GenerationRequest) (types.GenerationResult, error)
	Switch(ctx context.Context, d types.ModelDescriptor) (string, error)
	Unload(ctx context.Context) error
	Ready() bool
}

type handlers struct {
	svc Service
}

func NewMux(svc Service) http.Handler {
	h := &handlers{svc: svc}
	r := chi.NewRouter()
	// Recoverer sits inside the logger and metrics so a panic is recorded as a 500.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	// PNG bodies are already compressed; only text is worth it.
	r.Use(middleware.Compress(5, "application/json", "text/html"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Seed", "X-Generation-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/", h.indexGet)
	r.Post("/", h.indexPost)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/models", h.listModels)
		r.Post("/generate", h.generateJSON)
		r.Put("/model", h.switchModel)
		r.Delete("/model", h.unloadModel)
	})

	r.Get("/status", h.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model loaded"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// listModels godoc
// @Summary      List predefined models
// @Description  Returns the model catalog and the supported resolutions.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /v1/models [get]
func (h *handlers) listModels(w http.ResponseWriter, r *http.Request) {
	rs := resolve.SupportedResolutions()
	names := make([]string, len(rs))
	for i, res := range rs {
		names[i] = res.String()
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: h.svc.ListModels(), Resolutions: names})
}

// status godoc
// @Summary      Orchestrator status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// generateJSON godoc
// @Summary      Generate an image
// @Description  Makes the requested model resident if needed and generates one image. With format=png the raw PNG is returned and the seed is in X-Seed.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Produce      png
// @Param        format  query     string                 false  "png for a raw image body"
// @Param        body    body      types.GenerateRequest  true   "generation request"
// @Success      200     {object}  types.GenerateResponse
// @Failure      400     {object}  types.ErrorResponse
// @Failure      429     {object}  types.ErrorResponse
// @Failure      500     {object}  types.ErrorResponse
// @Failure      502     {object}  types.ErrorResponse
// @Router       /v1/generate [post]
func (h *handlers) generateJSON(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	raw := types.RawRequest{
		ModelKind:  req.Model,
		CustomPath: req.CustomPath,
		Prompt:     req.Prompt,
		Resolution: req.Resolution,
	}
	if raw.ModelKind == "" && strings.TrimSpace(raw.CustomPath) == "" {
		raw.ModelKind = types.KindDev
	}
	if raw.Resolution == "" {
		raw.Resolution = resolve.DefaultResolution.String()
	}
	if req.Seed != nil {
		raw.Seed = strconv.FormatInt(*req.Seed, 10)
	}

	ctx, cancel := requestContext(r.Context())
	defer cancel()
	res, err := h.generate(ctx, r, raw)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Seed", strconv.FormatInt(res.Seed, 10))
	w.Header().Set("X-Generation-Id", res.ID)
	if strings.EqualFold(r.URL.Query().Get("format"), "png") {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Image)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{
		ID:          res.ID,
		ImageBase64: base64.StdEncoding.EncodeToString(res.Image),
		Seed:        res.Seed,
		Model:       res.Model,
		Resolution:  res.Resolution.String(),
		DurationMS:  res.Duration.Milliseconds(),
	})
}

// switchModel godoc
// @Summary      Switch the resident model
// @Description  Starts loading the model in the background and returns an operation id. Poll /status.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        body  body      types.SwitchRequest  true  "model selection"
// @Success      202   {object}  types.SwitchResponse
// @Failure      400   {object}  types.ErrorResponse
// @Router       /v1/model [put]
func (h *handlers) switchModel(w http.ResponseWriter, r *http.Request) {
	var req types.SwitchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.ResolveModel(req.Model, req.CustomPath)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	op, err := h.svc.Switch(r.Context(), d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.SwitchResponse{OpID: op})
}

// unloadModel godoc
// @Summary      Unload the resident model
// @Description  Waits for any in-flight generation, then releases the pipeline.
// @Tags         models
// @Success      204
// @Failure      429  {object}  types.ErrorResponse
// @Router       /v1/model [delete]
func (h *handlers) unloadModel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if err := h.svc.Unload(ctx); err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generate resolves raw, runs the generation, and persists the image when a
// sink is configured. Persistence failures are logged, not returned.
func (h *handlers) generate(ctx context.Context, r *http.Request, raw types.RawRequest) (types.GenerationResult, error) {
	req, err := h.svc.Resolve(raw)
	if err != nil {
		return types.GenerationResult{}, err
	}
	if requestLogLevel(r) >= LevelDebug {
		zlog.Debug().Str("request_id", middleware.GetReqID(r.Context())).Str("model", req.Model.String()).
			Str("resolution", req.Resolution.String()).Str("seed", req.Seed.String()).Str("prompt", req.Prompt).
			Msg("generate request")
	}
	res, err := h.svc.Generate(ctx, req)
	if err != nil {
		return res, err
	}
	if imageSink != nil {
		meta := map[string]string{
			"model":      res.Model.String(),
			"seed":       strconv.FormatInt(res.Seed, 10),
			"resolution": res.Resolution.String(),
		}
		if name, err := imageSink.Save(ctx, res.ID+".png", res.Image, meta); err != nil {
			zlog.Warn().Err(err).Str("id", res.ID).Msg("persist image failed")
		} else {
			zlog.Debug().Str("id", res.ID).Str("name", name).Msg("image persisted")
		}
	}
	return res, nil
}

// decodeJSON enforces the content type and body limit. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "validation")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", "validation")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}
