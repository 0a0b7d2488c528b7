package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"hidream/internal/common/fsutil"
)

const s3Scheme = "s3://"

// ContentTypePNG is the content type of every stored image.
const ContentTypePNG = "image/png"

// ParseS3 splits "s3://bucket/key" into bucket and key. ok is false for
// anything that is not an s3 URL.
func ParseS3(target string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(target, s3Scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(target, s3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	return bucket, key, true
}

// ForTarget returns the uploader for a single output target along with the
// object name to pass in UploadParams. Local paths may start with '~'.
func ForTarget(ctx context.Context, target string) (Uploader, string, error) {
	if target == "" {
		return nil, "", errors.New("empty output target")
	}
	if bucket, key, ok := ParseS3(target); ok {
		if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return nil, "", fmt.Errorf("s3 target %q needs a bucket and an object key", target)
		}
		u, err := NewS3Uploader(ctx, bucket)
		if err != nil {
			return nil, "", fmt.Errorf("aws config: %w", err)
		}
		return u, key, nil
	}
	p, err := fsutil.ExpandHome(target)
	if err != nil {
		return nil, "", err
	}
	return &FileUploader{}, p, nil
}

// Dir stores many images under one local directory or s3 prefix.
type Dir struct {
	Uploader Uploader
	prefix   string
	s3       bool
}

// OpenDir prepares a Dir for base, which is a local directory or
// "s3://bucket/prefix".
func OpenDir(ctx context.Context, base string) (*Dir, error) {
	if base == "" {
		return nil, errors.New("empty output directory")
	}
	if bucket, prefix, ok := ParseS3(base); ok {
		if bucket == "" {
			return nil, fmt.Errorf("s3 directory %q needs a bucket", base)
		}
		u, err := NewS3Uploader(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		return &Dir{Uploader: u, prefix: strings.Trim(prefix, "/"), s3: true}, nil
	}
	p, err := fsutil.ExpandHome(base)
	if err != nil {
		return nil, err
	}
	return &Dir{Uploader: &FileUploader{}, prefix: p}, nil
}

// NewDir wraps an existing uploader. Used when the caller already has a
// configured client.
func NewDir(u Uploader, prefix string, s3 bool) *Dir {
	return &Dir{Uploader: u, prefix: prefix, s3: s3}
}

// Save stores a PNG as name inside the directory and returns the full name.
func (d *Dir) Save(ctx context.Context, name string, data []byte, meta map[string]string) (string, error) {
	full := d.join(name)
	err := d.Uploader.Upload(ctx, UploadParams{
		Name:        full,
		Data:        data,
		ContentType: ContentTypePNG,
		Metadata:    meta,
	})
	if err != nil {
		return "", err
	}
	return full, nil
}

func (d *Dir) join(name string) string {
	if d.s3 {
		if d.prefix == "" {
			return name
		}
		return path.Join(d.prefix, name)
	}
	return filepath.Join(d.prefix, name)
}
