package httpapi

import (
	"context"
	"time"
)

// maxBodyBytes controls the maximum allowed request body size for JSON and
// form endpoints. Prompts are short; 1 MiB is plenty.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// generateTimeout bounds a generation request, including the wait for the
// model slot and any model switch. Zero means no bound beyond the client.
var generateTimeout time.Duration

// SetGenerateTimeoutSeconds sets the generation timeout in seconds (0 disables).
func SetGenerateTimeoutSeconds(sec int) {
	if sec < 0 {
		sec = 0
	}
	generateTimeout = time.Duration(sec) * time.Second
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// ImageSink persists generated images. store.Dir satisfies it.
type ImageSink interface {
	Save(ctx context.Context, name string, data []byte, meta map[string]string) (string, error)
}

var imageSink ImageSink

// SetImageSink makes the server keep a copy of every generated image.
// nil disables persistence.
func SetImageSink(s ImageSink) { imageSink = s }
