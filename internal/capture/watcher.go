package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
)

type WatchConfig struct {
	Inbox       string        // directory to watch (recursive)
	InitialScan bool          // emit files already present
	Debounce    time.Duration // coalesce rapid write bursts
}

// Watch emits paths of image files created or rewritten under the inbox.
// Both channels close when ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Inbox == "" {
		return nil, nil, errors.New("no inbox directory")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Inbox, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && isCandidate(path) {
			select {
			case evCh <- path:
			default:
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to watch inbox", "inbox", cfg.Inbox, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		pending := map[string]struct{}{}
		var timer *time.Timer
		var fire <-chan time.Time

		flush := func() {
			for p := range pending {
				select {
				case evCh <- p:
				case <-ctx.Done():
					return
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-fire:
				fire = nil
				flush()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !isCandidate(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					flush()
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(cfg.Debounce)
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func isCandidate(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && constants.IsImageExt(filepath.Ext(base))
}

// Enqueuer accepts capture jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Pump turns inbox paths into jobs until paths closes or ctx is done.
// Files whose names do not map to a target are skipped.
func Pump(ctx context.Context, paths <-chan string, q Enqueuer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			job, err := JobFromFile(path)
			if err != nil {
				logger.Warn("capture.inbox.skipped", "path", path, "error", err)
				continue
			}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Error("capture.inbox.enqueue_failed", "path", path, "error", err)
				continue
			}
			logger.Debug("capture.inbox.accepted", "path", path, "mime", constants.CaptureMIME(path), "bytes", len(job.Image))
		}
	}
}

// JobFromFile reads a capture dropped in the inbox.
func JobFromFile(path string) (Job, error) {
	target, ok := ParseFilename(path)
	if !ok {
		return Job{}, fmt.Errorf("unrecognised capture name %q", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Job{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Job{}, err
	}
	if info.Size() > constants.MaxCaptureBytes {
		return Job{}, fmt.Errorf("capture is %d bytes, limit %d", info.Size(), constants.MaxCaptureBytes)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:          uuid.New(),
		Target:      target,
		Image:       data,
		Capture:     imageprep.Capture{CapturedAt: info.ModTime()},
		Source:      path,
		SubmittedAt: time.Now(),
	}, nil
}
