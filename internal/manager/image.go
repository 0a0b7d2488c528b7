package manager

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"hidream/pkg/types"
)

var (
	errImageEmpty  = errors.New("runtime returned an empty image")
	errImageNotPNG = errors.New("runtime returned data that is not a PNG")
)

// pngMagic is the PNG file signature.
var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// validateImage checks that data is a PNG of the requested size.
func validateImage(data []byte, want types.Resolution) error {
	if len(data) == 0 {
		return errImageEmpty
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return errImageNotPNG
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if cfg.Height != want.Height || cfg.Width != want.Width {
		return fmt.Errorf("runtime returned %dx%d image, want %s", cfg.Height, cfg.Width, want)
	}
	return nil
}
