package types

// GenerateRequest is the JSON payload for POST /v1/generate.
type GenerateRequest struct {
	// Predefined model kind; ignored when custom_path is set.
	// example: fast
	Model string `json:"model,omitempty" example:"fast"`
	// Optional model directory. Overrides the predefined selection.
	// example: /models/hidream-custom
	CustomPath string `json:"custom_path,omitempty" example:"/models/hidream-custom"`
	// Required prompt text.
	// example: A cat holding a sign that says "Hi-Dreams.ai".
	Prompt string `json:"prompt" example:"A cat holding a sign that says \"Hi-Dreams.ai\"."`
	// Resolution as HxW. Defaults to 1024x1024.
	// example: 1024x1024
	Resolution string `json:"resolution,omitempty" example:"1024x1024"`
	// Seed for reproducibility; -1 or omitted picks one at random.
	// example: 42
	Seed *int64 `json:"seed,omitempty" example:"42"`
}

// GenerateResponse is returned by POST /v1/generate.
type GenerateResponse struct {
	// Generation id.
	// example: 2b0c6c4e-3c55-4b8a-9a62-8f0d7f1d7f3a
	ID string `json:"id" example:"2b0c6c4e-3c55-4b8a-9a62-8f0d7f1d7f3a"`
	// Base64-encoded PNG.
	ImageBase64 string `json:"image_base64"`
	// Seed actually used.
	// example: 42
	Seed int64 `json:"seed" example:"42"`
	// Model the image was generated with.
	Model ModelDescriptor `json:"model"`
	// Resolution as HxW.
	// example: 1024x1024
	Resolution string `json:"resolution" example:"1024x1024"`
	// Generation wall time in milliseconds, including any model switch.
	// example: 15230
	DurationMS int64 `json:"duration_ms" example:"15230"`
}

// ModelsResponse wraps the predefined models and supported resolutions.
type ModelsResponse struct {
	Models      []ModelInfo `json:"models"`
	Resolutions []string    `json:"resolutions" example:"1024x1024,768x1360"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unsupported resolution "1000x1000"
	Error string `json:"error" example:"unsupported resolution \"1000x1000\""`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Error category: validation, load, generation, busy, internal.
	// example: validation
	Kind string `json:"kind,omitempty" example:"validation"`
}

// SwitchResponse is returned when a background model switch is started.
type SwitchResponse struct {
	// Operation id.
	// example: 7a1d0c9e-14a2-4b0e-8d5e-0b9c3a7e2f11
	OpID string `json:"op_id" example:"7a1d0c9e-14a2-4b0e-8d5e-0b9c3a7e2f11"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Orchestrator state: no_model, loading, ready, generating.
	// example: ready
	State string `json:"state" example:"ready"`
	// Resident model, if any.
	Model *ModelDescriptor `json:"model,omitempty"`
	// When the resident model finished loading (unix seconds).
	// example: 1700000000
	LoadedAt int64 `json:"loaded_at_unix,omitempty" example:"1700000000"`
	// Last time the resident model served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix,omitempty" example:"1700000000"`
	// Requests waiting for the resident slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Requests currently holding the slot (0 or 1).
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum waiting requests before backpressure.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Last error observed by the manager.
	LastError string `json:"last_error,omitempty"`
	// Category of the last error.
	// example: generation
	LastErrorKind string `json:"last_error_kind,omitempty" example:"generation"`
	// Total successful model loads.
	// example: 3
	LoadsTotal uint64 `json:"loads_total" example:"3"`
	// Total model unloads.
	// example: 2
	UnloadsTotal uint64 `json:"unloads_total" example:"2"`
	// Total successful generations.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// SwitchRequest is the JSON payload for PUT /v1/model.
type SwitchRequest struct {
	// Predefined model kind; ignored when custom_path is set.
	// example: full
	Model string `json:"model,omitempty" example:"full"`
	// Optional model directory.
	CustomPath string `json:"custom_path,omitempty"`
}
