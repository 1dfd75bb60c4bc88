package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
)

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	DefaultLang string // used when Recognize gets no hint; default "spa+eng"

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Recognition is the output of one tesseract pass over one image.
type Recognition struct {
	Text       string
	Blocks     []Block
	Confidence float32 // mean word confidence, 0..100
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Block is one recognized text line with its mean word confidence (0..100).
type Block struct {
	Text       string
	Confidence float32
}

// Engine is the generic text-recognition collaborator, backed by tesseract.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	return NewEngineWithRunner(cfg, ExecRunner{Logger: logger}, logger)
}

func NewEngineWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "spa+eng"
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// Recognize runs tesseract in TSV mode over image and rebuilds the text line by line.
// lang is a tesseract language hint such as "spa" or "spa+eng".
func (e *Engine) Recognize(ctx context.Context, image []byte, lang string) (Recognition, error) {
	start := time.Now()
	if len(image) == 0 {
		return Recognition{}, fmt.Errorf("empty image: %w", common.ErrInvalidInput)
	}
	if lang == "" {
		lang = e.cfg.DefaultLang
	}

	f, err := os.CreateTemp("", "iw-ocr-*"+sniffExt(image))
	if err != nil {
		return Recognition{}, fmt.Errorf("ocr temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(image); err != nil {
		f.Close()
		return Recognition{}, fmt.Errorf("ocr temp write: %w", err)
	}
	if err := f.Close(); err != nil {
		return Recognition{}, fmt.Errorf("ocr temp close: %w", err)
	}

	args := []string{f.Name(), "stdout", "-l", lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	e.logger.Debug("ocr.recognize.start", "lang", lang, "bytes", len(image))
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		e.logger.Warn("ocr.recognize.failed", "lang", lang, "error", err)
		return Recognition{Language: lang, Warnings: []string{string(errb)}}, fmt.Errorf("tesseract: %w", err)
	}

	blocks, mean := parseTSV(string(out))
	text := joinBlocks(blocks)
	res := Recognition{
		Text:       Normalize(reBoxNoise.ReplaceAllString(text, "")),
		Blocks:     blocks,
		Confidence: mean,
		Language:   lang,
		Duration:   time.Since(start),
	}
	e.logger.Info("ocr.recognize.done",
		"lang", lang,
		"chars", len(res.Text),
		"lines", len(blocks),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func sniffExt(b []byte) string {
	switch {
	case len(b) > 3 && b[0] == 0xFF && b[1] == 0xD8:
		return ".jpg"
	case len(b) > 8 && string(b[1:4]) == "PNG":
		return ".png"
	}
	return ".img"
}
