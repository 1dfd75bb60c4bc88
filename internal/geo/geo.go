package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
)

// Position is a device GPS fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64 // metres, 0 if unknown
}

// PositionSource is the device geolocation collaborator.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Geocoder turns coordinates into a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// StaticSource reports a fixed position. Used by tools that receive coordinates from the device.
type StaticSource Position

func (s StaticSource) CurrentPosition(context.Context) (Position, error) {
	return Position(s), nil
}

// ErrNoFix is returned by ReportedSource until a position has been reported.
var ErrNoFix = errors.New("no position reported")

// ReportedSource answers with the last position a device attached to a capture.
type ReportedSource struct {
	mu  sync.Mutex
	pos *Position
}

// Report records p as the current position.
func (r *ReportedSource) Report(p Position) {
	r.mu.Lock()
	r.pos = &p
	r.mu.Unlock()
}

func (r *ReportedSource) CurrentPosition(context.Context) (Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos == nil {
		return Position{}, ErrNoFix
	}
	return *r.pos, nil
}

// Outcome tags a Locate result.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeNoAddress Outcome = "no_address" // position known, address lookup failed
	OutcomeTimeout   Outcome = "timeout"
	OutcomeFailed    Outcome = "failed"
)

// Fix is the result of Locate. Position is nil unless the device produced one.
type Fix struct {
	Position *Position
	Address  string
	Outcome  Outcome
	Err      error
}

// Patch returns the scene update for what was located. Nothing located yields nil,
// leaving manual address entry to the caller.
func (f Fix) Patch() *entity.ScenePatch {
	if f.Position == nil {
		return nil
	}
	lat, lng := f.Position.Latitude, f.Position.Longitude
	p := &entity.ScenePatch{Latitude: &lat, Longitude: &lng}
	if f.Address != "" {
		addr := f.Address
		p.Address = &addr
	}
	return p
}

// Locator bounds every collaborator call with a timeout so callers always get an outcome.
type Locator struct {
	source         PositionSource
	geocoder       Geocoder
	locateTimeout  time.Duration
	geocodeTimeout time.Duration
	logger         *slog.Logger
}

// NewLocator builds a locator. geocoder may be nil, in which case no address is resolved.
func NewLocator(source PositionSource, geocoder Geocoder, locateTimeout, geocodeTimeout time.Duration, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	if locateTimeout <= 0 {
		locateTimeout = 10 * time.Second
	}
	if geocodeTimeout <= 0 {
		geocodeTimeout = 5 * time.Second
	}
	return &Locator{
		source:         source,
		geocoder:       geocoder,
		locateTimeout:  locateTimeout,
		geocodeTimeout: geocodeTimeout,
		logger:         logger,
	}
}

// Locate asks the device for a position and then, best effort, for an address.
func (l *Locator) Locate(ctx context.Context) Fix {
	start := time.Now()
	pos, err := callWithTimeout(ctx, l.locateTimeout, l.source.CurrentPosition)
	if err != nil {
		out := classify(err)
		l.logger.Warn("geo.locate.failed", "outcome", out, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Fix{Outcome: out, Err: err}
	}

	fix := Fix{Position: &pos, Outcome: OutcomeOK}
	if l.geocoder == nil {
		fix.Outcome = OutcomeNoAddress
		return fix
	}
	addr, err := callWithTimeout(ctx, l.geocodeTimeout, func(c context.Context) (string, error) {
		return l.geocoder.ReverseGeocode(c, pos.Latitude, pos.Longitude)
	})
	if err != nil || addr == "" {
		l.logger.Warn("geo.reverse.failed", "error", err, "lat", pos.Latitude, "lng", pos.Longitude)
		fix.Outcome = OutcomeNoAddress
		fix.Err = err
		return fix
	}
	fix.Address = addr
	l.logger.Info("geo.locate.done", "elapsed_ms", time.Since(start).Milliseconds())
	return fix
}

// callWithTimeout returns when fn does or when the deadline passes, whichever is first,
// so a collaborator that ignores its context cannot hang the caller.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("geo collaborator panic: %v", r)}
			}
		}()
		v, err := fn(cctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}

func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return OutcomeFailed
}
