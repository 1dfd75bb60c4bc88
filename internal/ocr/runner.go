package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

// Runner executes an external tool (tesseract, heif-convert). Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()
	attrs := []any{"tool", name, "argc", len(args), "duration_ms", time.Since(start).Milliseconds()}

	switch {
	case ctx.Err() != nil:
		logger.Warn("tool.cancelled", append(attrs, "error", ctx.Err())...)
	case err != nil:
		logger.Error("tool.failed", append(attrs, "error", err, "stderr", utils.Truncate(errb.String(), 4<<10))...)
	default:
		logger.Debug("tool.ok", append(attrs, "stdout_bytes", out.Len())...)
	}
	return out.Bytes(), errb.Bytes(), err
}
