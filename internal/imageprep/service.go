// Package imageprep turns raw captures into compressed JPEG data URLs with thumbnails and capture metadata.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/nfnt/resize"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/ocr"
)

type Options struct {
	MaxWidth      uint // default 1280
	MaxHeight     uint // default 1280
	Quality       int  // JPEG quality, default 80
	ThumbSize     uint // default 160
	HeicConverter string
}

// Image is a prepared capture.
type Image struct {
	JPEG         []byte
	DataURL      string
	Thumbnail    string
	Width        int
	Height       int
	SourceFormat string
}

// Capture is what the device reported alongside the raw image.
type Capture struct {
	Latitude    *float64
	Longitude   *float64
	DeviceModel string
	CapturedAt  time.Time
}

type Service struct {
	opts   Options
	runner ocr.Runner
	logger *slog.Logger
}

func NewService(opts Options, logger *slog.Logger) *Service {
	return NewServiceWithRunner(opts, ocr.ExecRunner{Logger: logger}, logger)
}

func NewServiceWithRunner(opts Options, runner ocr.Runner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 1280
	}
	if opts.MaxHeight == 0 {
		opts.MaxHeight = 1280
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	if opts.ThumbSize == 0 {
		opts.ThumbSize = 160
	}
	return &Service{opts: opts, runner: runner, logger: logger}
}

// Prepare decodes raw, shrinks it to fit the configured bounds, re-encodes it as JPEG
// and renders a thumbnail. Images already inside the bounds keep their size.
func (s *Service) Prepare(ctx context.Context, raw []byte) (Image, error) {
	start := time.Now()
	if len(raw) == 0 {
		return Image{}, fmt.Errorf("empty capture: %w", common.ErrInvalidInput)
	}
	if len(raw) > constants.MaxCaptureBytes {
		return Image{}, fmt.Errorf("capture exceeds %d bytes: %w", constants.MaxCaptureBytes, common.ErrInvalidInput)
	}

	if isHEIC(raw) {
		png, err := s.convertHEIC(ctx, raw)
		if err != nil {
			s.logger.Warn("imageprep.heic.failed", "error", err)
			return Image{}, err
		}
		raw = png
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode capture: %w", err)
	}

	img := resize.Thumbnail(s.opts.MaxWidth, s.opts.MaxHeight, src, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.opts.Quality}); err != nil {
		return Image{}, fmt.Errorf("encode capture: %w", err)
	}

	thumb := resize.Thumbnail(s.opts.ThumbSize, s.opts.ThumbSize, img, resize.Bilinear)
	var tbuf bytes.Buffer
	if err := jpeg.Encode(&tbuf, thumb, &jpeg.Options{Quality: 70}); err != nil {
		return Image{}, fmt.Errorf("encode thumbnail: %w", err)
	}

	b := img.Bounds()
	out := Image{
		JPEG:         buf.Bytes(),
		DataURL:      EncodeDataURL(MimeJPEG, buf.Bytes()),
		Thumbnail:    EncodeDataURL(MimeJPEG, tbuf.Bytes()),
		Width:        b.Dx(),
		Height:       b.Dy(),
		SourceFormat: format,
	}
	s.logger.Debug("imageprep.prepare.done",
		"format", format,
		"in_bytes", len(raw),
		"out_bytes", len(out.JPEG),
		"width", out.Width,
		"height", out.Height,
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Metadata combines the prepared image with what the device reported.
func (img Image) Metadata(c Capture) *entity.PhotoMetadata {
	return &entity.PhotoMetadata{
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		DeviceModel: c.DeviceModel,
		Width:       img.Width,
		Height:      img.Height,
		SizeBytes:   len(img.JPEG),
	}
}

// Decode reads image bytes or a data URL back into an image.
func Decode(ref []byte) (image.Image, error) {
	if IsDataURL(string(ref)) {
		_, data, err := DecodeDataURL(string(ref))
		if err != nil {
			return nil, err
		}
		ref = data
	}
	img, _, err := image.Decode(bytes.NewReader(ref))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Bytes returns the raw bytes behind an image reference: a data URL is decoded, anything else is returned as is.
func Bytes(ref string) ([]byte, error) {
	if !IsDataURL(ref) {
		return []byte(ref), nil
	}
	_, data, err := DecodeDataURL(ref)
	return data, err
}
