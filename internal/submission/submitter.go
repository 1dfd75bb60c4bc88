package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
)

// Record kinds reported in Result.Pending and metrics.
const (
	KindInspection = "inspection"
	KindPhotos     = "photos"
	KindFindings   = "findings"
	KindConsent    = "consent"
)

// Persister is the backend persistence collaborator.
type Persister interface {
	// CreateInspection stores the summary record and returns the backend reference.
	CreateInspection(ctx context.Context, rec InspectionRecord) (string, error)
	CreatePhotos(ctx context.Context, ref string, recs []PhotoRecord) error
	CreateFindings(ctx context.Context, ref string, recs []FindingRecord) error
	CreateConsent(ctx context.Context, ref string, rec ConsentRecord) error
}

// ImageSink moves inline images to durable storage and returns the new reference.
type ImageSink interface {
	Store(ctx context.Context, inspectionID, photoID uuid.UUID, image string) (string, error)
}

// Result describes a submission. A Result with an empty Reference has not been accepted by the backend.
type Result struct {
	Reference string
	Payload   Payload
	Pending   []string
	Errors    map[string]error
}

// Done reports whether every record was written.
func (r Result) Done() bool {
	return r.Reference != "" && len(r.Pending) == 0
}

// Submitter hands assembled payloads to the persistence collaborator.
type Submitter struct {
	assembler *Assembler
	persister Persister
	sink      ImageSink
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type SubmitterOption func(*Submitter)

func WithImageSink(s ImageSink) SubmitterOption {
	return func(sub *Submitter) { sub.sink = s }
}

func WithLogger(l *slog.Logger) SubmitterOption {
	return func(sub *Submitter) {
		if l != nil {
			sub.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) SubmitterOption {
	return func(sub *Submitter) { sub.metrics = m }
}

func NewSubmitter(a *Assembler, p Persister, opts ...SubmitterOption) *Submitter {
	s := &Submitter{assembler: a, persister: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit assembles i and writes it. The inspection record must be written; a failure there
// returns a SUBMISSION_FAILED error together with a Result that can be passed to Retry.
// Photo, finding and consent writes are best effort and left in Result.Pending when they fail.
func (s *Submitter) Submit(ctx context.Context, i entity.Inspection) (Result, error) {
	payload := s.assembler.Assemble(i)
	s.metrics.ObserveScores(payload.Inspection.RiskScore, payload.Inspection.QualityScore)
	s.logger.Info("submission.assembled",
		"inspection_id", i.ID,
		"photos", len(payload.Photos),
		"findings", len(payload.Findings),
		"risk", payload.Inspection.RiskScore,
		"quality", payload.Inspection.QualityScore)

	if s.sink != nil {
		s.storeImages(ctx, &payload)
	}
	return s.Retry(ctx, Result{Payload: payload})
}

// Retry resumes a submission from where it stopped: the inspection record first if it was never
// accepted, then any pending secondary records.
func (s *Submitter) Retry(ctx context.Context, res Result) (Result, error) {
	if res.Reference == "" {
		ref, err := s.persister.CreateInspection(ctx, res.Payload.Inspection)
		if err == nil && ref == "" {
			err = errors.New("persister returned an empty reference")
		}
		if err != nil {
			s.metrics.IncSubmissionWrite(KindInspection, "error")
			s.logger.Error("submission.inspection.failed", "inspection_id", res.Payload.Inspection.ID, "error", err)
			return res, common.NewAppError(common.CodeSubmissionFailed, "could not save the inspection", err)
		}
		s.metrics.IncSubmissionWrite(KindInspection, "ok")
		res.Reference = ref
		res.Pending = []string{KindPhotos, KindFindings, KindConsent}
	}
	return s.RetrySecondary(ctx, res), nil
}

// RetrySecondary re-attempts the pending photo, finding and consent writes under the same reference.
func (s *Submitter) RetrySecondary(ctx context.Context, res Result) Result {
	if res.Reference == "" {
		return res
	}
	var still []string
	errs := map[string]error{}
	for _, kind := range res.Pending {
		if err := s.writeSecondary(ctx, res.Reference, kind, res.Payload); err != nil {
			s.metrics.IncSubmissionWrite(kind, "error")
			s.logger.Warn("submission.secondary.failed", "reference", res.Reference, "record", kind, "error", err)
			still = append(still, kind)
			errs[kind] = err
			continue
		}
		s.metrics.IncSubmissionWrite(kind, "ok")
	}
	res.Pending = still
	res.Errors = nil
	if len(errs) > 0 {
		res.Errors = errs
	}
	s.logger.Info("submission.done", "reference", res.Reference, "pending", res.Pending)
	return res
}

func (s *Submitter) writeSecondary(ctx context.Context, ref, kind string, p Payload) error {
	switch kind {
	case KindPhotos:
		if len(p.Photos) == 0 {
			return nil
		}
		return s.persister.CreatePhotos(ctx, ref, p.Photos)
	case KindFindings:
		if len(p.Findings) == 0 {
			return nil
		}
		return s.persister.CreateFindings(ctx, ref, p.Findings)
	case KindConsent:
		if p.Consent == nil {
			return nil
		}
		return s.persister.CreateConsent(ctx, ref, *p.Consent)
	}
	return fmt.Errorf("unknown record kind %q", kind)
}

// storeImages replaces inline images with sink references. Upload failures keep the inline image.
func (s *Submitter) storeImages(ctx context.Context, p *Payload) {
	for k := range p.Photos {
		ph := &p.Photos[k]
		ref, err := s.sink.Store(ctx, ph.InspectionID, ph.ID, ph.Image)
		if err != nil {
			s.logger.Warn("submission.image.store_failed", "photo_id", ph.ID, "error", err)
			continue
		}
		ph.Image = ref
	}
	if c := p.Consent; c != nil && c.Signature != "" {
		id := uuid.NewSHA1(c.InspectionID, []byte("signature"))
		if ref, err := s.sink.Store(ctx, c.InspectionID, id, c.Signature); err == nil {
			c.Signature = ref
		} else {
			s.logger.Warn("submission.signature.store_failed", "error", err)
		}
	}
}
