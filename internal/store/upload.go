// Package store persists generated images to a local path or an S3 bucket.
package store

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"hidream/internal/common/fsutil"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes to the local filesystem, creating parent directories.
type FileUploader struct{}

func (*FileUploader) Upload(ctx context.Context, params UploadParams) error {
	zerolog.Ctx(ctx).Debug().Str("file", params.Name).Int("bytes", len(params.Data)).Msg("writing image")
	if err := fsutil.EnsureParentDir(params.Name); err != nil {
		return err
	}
	return os.WriteFile(params.Name, params.Data, 0o644)
}
