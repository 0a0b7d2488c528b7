package httpapi

import (
	"bytes"
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"
	"time"

	"hidream/internal/resolve"
	"hidream/pkg/types"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type resolutionOption struct {
	Value string
	Label string
}

type formValues struct {
	Model      string
	CustomPath string
	Prompt     string
	Resolution string
	Seed       string
}

type pageResult struct {
	ImageData template.URL
	Seed      int64
	Model     string
	Elapsed   string
	Height    int
	Width     int
}

type pageData struct {
	Models      []types.ModelInfo
	Resolutions []resolutionOption
	Form        formValues
	Result      *pageResult
	Error       string
	Status      types.StatusResponse
}

// defaultForm mirrors the CLI defaults.
func defaultForm() formValues {
	return formValues{
		Model:      types.KindDev,
		Resolution: resolve.DefaultResolution.String(),
		Seed:       "-1",
	}
}

func resolutionOptions() []resolutionOption {
	rs := resolve.SupportedResolutions()
	out := make([]resolutionOption, len(rs))
	for i, r := range rs {
		out[i] = resolutionOption{Value: r.String(), Label: resolve.Label(r)}
	}
	return out
}

func (h *handlers) page(form formValues) pageData {
	return pageData{
		Models:      h.svc.ListModels(),
		Resolutions: resolutionOptions(),
		Form:        form,
		Status:      h.svc.Status(),
	}
}

func (h *handlers) indexGet(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, h.page(defaultForm()))
}

// indexPost handles the web form. Errors are rendered inline and the status
// code follows the JSON API mapping.
func (h *handlers) indexPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		data := h.page(defaultForm())
		data.Error = "invalid form submission"
		renderPage(w, http.StatusBadRequest, data)
		return
	}
	form := formValues{
		Model:      r.PostForm.Get("model"),
		CustomPath: r.PostForm.Get("custom_path"),
		Prompt:     r.PostForm.Get("prompt"),
		Resolution: r.PostForm.Get("resolution"),
		Seed:       r.PostForm.Get("seed"),
	}
	raw := types.RawRequest{
		ModelKind:  form.Model,
		CustomPath: form.CustomPath,
		Prompt:     form.Prompt,
		Resolution: form.Resolution,
		Seed:       form.Seed,
	}
	if raw.Resolution == "" {
		raw.Resolution = resolve.DefaultResolution.String()
	}

	ctx, cancel := requestContext(r.Context())
	defer cancel()
	res, err := h.generate(ctx, r, raw)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("slot")
		}
		data := h.page(form)
		data.Error = err.Error()
		renderPage(w, status, data)
		return
	}
	data := h.page(form)
	data.Result = &pageResult{
		ImageData: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(res.Image)),
		Seed:      res.Seed,
		Model:     res.Model.String(),
		Elapsed:   res.Duration.Round(10 * time.Millisecond).String(),
		Height:    res.Resolution.Height,
		Width:     res.Resolution.Width,
	}
	renderPage(w, http.StatusOK, data)
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		zlog.Error().Err(err).Msg("render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
