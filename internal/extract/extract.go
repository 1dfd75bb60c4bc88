package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
	"github.com/joseph-ayodele/inspection-wizard/internal/ocr"
)

// Outcome tags how an extraction result was produced.
type Outcome string

const (
	OutcomeRemote    Outcome = "remote"
	OutcomeOCR       Outcome = "ocr"
	OutcomeHeuristic Outcome = "heuristic"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// RemoteConfidence is assigned to any non-empty remote identity extraction.
const RemoteConfidence float32 = 0.95

const heuristicPenalty float32 = 0.6

// IdentifierKind selects the vehicle identifier to extract.
type IdentifierKind string

const (
	KindPlate IdentifierKind = "plate"
	KindVIN   IdentifierKind = "vin"
)

// Recognizer is the generic text-recognition collaborator.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, lang string) (ocr.Recognition, error)
}

// IdentityResult is what ExtractIdentity reports. It is always returned, never an error.
type IdentityResult struct {
	Fields     entity.ExtractedIdentity
	Confidence float32 // 0..1
	RawText    string
	Source     string // remote | ocr
	Outcome    Outcome
}

// Patch turns the result into an identity-document update. A failed result with
// nothing extracted yields nil.
func (r IdentityResult) Patch(at time.Time) *entity.IdentityDocumentPatch {
	if r.Fields.IsEmpty() && r.Outcome == OutcomeFailed {
		return nil
	}
	fields := r.Fields
	conf := r.Confidence
	src := r.Source
	return &entity.IdentityDocumentPatch{
		Extracted:   &fields,
		Source:      &src,
		Confidence:  &conf,
		ExtractedAt: &at,
	}
}

// IdentifierResult is what ExtractVehicleIdentifier reports. Value is nil when nothing was found.
type IdentifierResult struct {
	Value      *string
	Confidence float32 // 0..1
	RawText    string
	Outcome    Outcome
}

type Option func(*Extractor)

// WithRemote enables the high-accuracy identity path.
func WithRemote(r llm.IdentityExtractor) Option {
	return func(e *Extractor) { e.remote = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithRemoteTimeout bounds a single remote extraction call.
func WithRemoteTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.remoteTimeout = d
		}
	}
}

// Extractor reads identity fields and vehicle identifiers from images.
type Extractor struct {
	recognizer    Recognizer
	remote        llm.IdentityExtractor
	logger        *slog.Logger
	metrics       *metrics.Metrics
	remoteTimeout time.Duration
}

func New(recognizer Recognizer, opts ...Option) *Extractor {
	e := &Extractor{
		recognizer:    recognizer,
		logger:        slog.Default(),
		remoteTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractIdentity tries the remote extractor first and falls back to OCR plus
// country-aware field parsing. back may be nil.
func (e *Extractor) ExtractIdentity(ctx context.Context, front, back []byte, country string) (res IdentityResult) {
	start := time.Now()
	cf, _ := constants.LookupCountry(country)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.identity.panic", "country", cf.Code, "panic", r)
			res = IdentityResult{Outcome: OutcomeFailed}
		}
		e.metrics.ObserveExtract("identity", string(res.Outcome), time.Since(start))
		e.logger.Info("extract.identity.done",
			"country", cf.Code,
			"outcome", res.Outcome,
			"confidence", res.Confidence,
			"elapsed_ms", time.Since(start).Milliseconds())
	}()

	if r, ok := e.remoteIdentity(ctx, front, back, cf); ok {
		return r
	}
	return e.ocrIdentity(ctx, front, back, cf)
}

func (e *Extractor) remoteIdentity(ctx context.Context, front, back []byte, cf constants.CountryFormat) (IdentityResult, bool) {
	if e.remote == nil {
		return IdentityResult{}, false
	}
	rctx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	fields, raw, err := e.remote.ExtractIdentity(rctx, llm.IdentityRequest{Front: front, Back: back, Country: cf})
	if err != nil {
		e.logger.Warn("extract.identity.remote.failed", "country", cf.Code, "error", err)
		return IdentityResult{}, false
	}
	ident := fields.Entity()
	if ident.DisplayName() == "" && ident.DocumentNumber == "" {
		e.logger.Info("extract.identity.remote.empty", "country", cf.Code)
		return IdentityResult{}, false
	}
	return IdentityResult{
		Fields:     ident,
		Confidence: RemoteConfidence,
		RawText:    string(raw),
		Source:     "remote",
		Outcome:    OutcomeRemote,
	}, true
}

func (e *Extractor) ocrIdentity(ctx context.Context, front, back []byte, cf constants.CountryFormat) IdentityResult {
	var (
		texts []string
		sum   float32
		n     int
	)
	for _, img := range [][]byte{front, back} {
		if len(img) == 0 {
			continue
		}
		rec, err := e.recognizer.Recognize(ctx, img, cf.Language)
		if err != nil {
			e.logger.Warn("extract.identity.ocr.failed", "country", cf.Code, "error", err)
			continue
		}
		texts = append(texts, rec.Text)
		sum += rec.Confidence
		n++
	}
	if n == 0 {
		return IdentityResult{Source: "ocr", Outcome: OutcomeFailed}
	}

	raw := strings.Join(texts, "\n")
	fields := ParseIdentity(ocr.Normalize(raw), cf)
	out := IdentityResult{
		Fields:     fields,
		Confidence: sum / float32(n) / 100,
		RawText:    raw,
		Source:     "ocr",
		Outcome:    OutcomeOCR,
	}
	if fields.IsEmpty() {
		out.Outcome = OutcomeNotFound
	}
	return out
}

// ExtractVehicleIdentifier reads a plate or VIN. Recognition failure is reported as a
// nil value with zero confidence.
func (e *Extractor) ExtractVehicleIdentifier(ctx context.Context, image []byte, kind IdentifierKind, country string) (res IdentifierResult) {
	start := time.Now()
	cf, _ := constants.LookupCountry(country)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extract.identifier.panic", "kind", kind, "panic", r)
			res = IdentifierResult{Outcome: OutcomeFailed}
		}
		e.metrics.ObserveExtract(string(kind), string(res.Outcome), time.Since(start))
		e.logger.Info("extract.identifier.done",
			"kind", kind,
			"country", cf.Code,
			"outcome", res.Outcome,
			"confidence", res.Confidence,
			"elapsed_ms", time.Since(start).Milliseconds())
	}()

	rec, err := e.recognizer.Recognize(ctx, image, cf.Language)
	if err != nil {
		e.logger.Warn("extract.identifier.ocr.failed", "kind", kind, "error", err)
		return IdentifierResult{Outcome: OutcomeFailed}
	}
	conf := rec.Confidence / 100
	text := ocr.Normalize(rec.Text)

	switch kind {
	case KindVIN:
		if v, ok := MatchVIN(text); ok {
			return IdentifierResult{Value: &v, Confidence: conf, RawText: rec.Text, Outcome: OutcomeOCR}
		}
	default:
		if v, ok := MatchPlate(text, cf); ok {
			return IdentifierResult{Value: &v, Confidence: conf, RawText: rec.Text, Outcome: OutcomeOCR}
		}
		if v, ok := HeuristicPlate(text); ok {
			return IdentifierResult{Value: &v, Confidence: conf * heuristicPenalty, RawText: rec.Text, Outcome: OutcomeHeuristic}
		}
	}
	return IdentifierResult{RawText: rec.Text, Outcome: OutcomeNotFound}
}
