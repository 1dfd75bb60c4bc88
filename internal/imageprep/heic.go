package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// isHEIC sniffs the ISO-BMFF brand of HEIC/HEIF captures.
func isHEIC(b []byte) bool {
	if len(b) < 12 || string(b[4:8]) != "ftyp" {
		return false
	}
	switch string(b[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
		return true
	}
	return false
}

// convertHEIC converts HEIC bytes to PNG bytes with the configured converter.
// converter: "heif-convert" | "magick" | "sips"
func (s *Service) convertHEIC(ctx context.Context, in []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "iw-heic-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "capture.heic")
	out := filepath.Join(tmpDir, "capture.png")
	if err := os.WriteFile(src, in, 0o600); err != nil {
		return nil, err
	}

	var errb []byte
	switch s.opts.HeicConverter {
	case "heif-convert":
		_, errb, err = s.runner.Run(ctx, "heif-convert", src, out)
	case "magick":
		_, errb, err = s.runner.Run(ctx, "magick", src, out)
	case "sips":
		_, errb, err = s.runner.Run(ctx, "sips", "-s", "format", "png", src, "--out", out)
	default:
		return nil, fmt.Errorf("HEIC not supported: set the converter to one of: heif-convert | magick | sips")
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (%s)", s.opts.HeicConverter, err, bytes.TrimSpace(errb))
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("HEIC conversion produced no output: %w", err)
	}
	return png, nil
}
