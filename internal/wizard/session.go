package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/capture"
	"github.com/joseph-ayodele/inspection-wizard/internal/classify"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/extract"
	"github.com/joseph-ayodele/inspection-wizard/internal/geo"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/inspection"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

// Preparer compresses raw captures.
type Preparer interface {
	Prepare(ctx context.Context, raw []byte) (imageprep.Image, error)
}

// Classifier checks a capture against the slot it was taken for.
type Classifier interface {
	Classify(ctx context.Context, image []byte, expected constants.Slot) classify.Result
}

// Extractor reads identity fields, plates and VINs.
type Extractor interface {
	ExtractIdentity(ctx context.Context, front, back []byte, country string) extract.IdentityResult
	ExtractVehicleIdentifier(ctx context.Context, image []byte, kind extract.IdentifierKind, country string) extract.IdentifierResult
}

// Locator produces the accident position.
type Locator interface {
	Locate(ctx context.Context) geo.Fix
}

// Submitter hands the finished inspection to persistence.
type Submitter interface {
	Submit(ctx context.Context, i entity.Inspection) (submission.Result, error)
	Retry(ctx context.Context, res submission.Result) (submission.Result, error)
	RetrySecondary(ctx context.Context, res submission.Result) submission.Result
}

// CaptureOutcome reports what happened to one capture. Check is advisory.
type CaptureOutcome struct {
	PhotoID    uuid.UUID
	Check      classify.Result
	Identity   *extract.IdentityResult
	Identifier *extract.IdentifierResult
	Analysis   *entity.DamageAnalysis
}

// Session performs the actions of each wizard step against one store.
// It is safe for concurrent use; every document change goes through the store.
type Session struct {
	store       *inspection.Store
	prep        Preparer
	classifier  Classifier
	extractor   Extractor
	locator     Locator
	damage      llm.DamageAnalyzer
	damageModel string
	damageWait  time.Duration
	submitter   Submitter
	clock       func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	pending *submission.Result
}

type Option func(*Session)

func WithPreparer(p Preparer) Option {
	return func(s *Session) { s.prep = p }
}

func WithClassifier(c Classifier) Option {
	return func(s *Session) { s.classifier = c }
}

func WithExtractor(e Extractor) Option {
	return func(s *Session) { s.extractor = e }
}

func WithLocator(l Locator) Option {
	return func(s *Session) { s.locator = l }
}

// WithDamageAnalyzer enables damage detection on damage photos; model is recorded on each analysis.
func WithDamageAnalyzer(a llm.DamageAnalyzer, model string, timeout time.Duration) Option {
	return func(s *Session) {
		s.damage = a
		s.damageModel = model
		if timeout > 0 {
			s.damageWait = timeout
		}
	}
}

func WithSubmitter(sub Submitter) Option {
	return func(s *Session) { s.submitter = sub }
}

func WithClock(c func() time.Time) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession wires a session over store. Without a preparer or classifier the defaults are used;
// without an extractor, locator, damage analyzer or submitter those actions degrade gracefully.
func NewSession(store *inspection.Store, opts ...Option) *Session {
	s := &Session{
		store:      store,
		damageWait: 45 * time.Second,
		clock:      func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.prep == nil {
		s.prep = imageprep.NewService(imageprep.Options{}, s.logger)
	}
	if s.classifier == nil {
		s.classifier = classify.New(nil, s.logger, s.metrics)
	}
	return s
}

// Store exposes the underlying document store for plain field updates.
func (s *Session) Store() *inspection.Store { return s.store }

// Step returns the current wizard step.
func (s *Session) Step() constants.Step { return constants.Step(s.store.Step()) }

// Start creates a fresh inspection for country and accident type and moves to the identity step.
func (s *Session) Start(ctx context.Context, country string, accidentType constants.AccidentType) (entity.Inspection, error) {
	v := common.NewValidator()
	v.Field("country", country, common.Required)
	if !accidentType.IsValid() {
		v.Field("accident_type", "", common.Required)
	}
	if err := v.Error(); err != nil {
		return entity.Inspection{}, common.NewAppError(common.CodeInvalidInput, "cannot start inspection", err)
	}
	if _, known := constants.LookupCountry(country); !known {
		s.logger.Warn("wizard.start.unknown_country", "country", country)
	}
	s.clearPending()
	doc := s.store.InitInspection(ctx, country, accidentType)
	s.logger.Info("wizard.start", "inspection_id", doc.ID, "country", doc.Country, "accident_type", doc.AccidentType)
	return doc, nil
}

// Continue advances one step when the current step's gate holds. A failing gate returns a
// GATE_BLOCKED AppError wrapping a *GateError. Continuing from the last step is a no-op.
func (s *Session) Continue(ctx context.Context) (constants.Step, error) {
	snap := s.store.Snapshot()
	step := constants.Step(snap.CurrentStep)
	if unmet := Gate(step, snap.Inspection); len(unmet) > 0 {
		s.metrics.IncGate(step.String(), "blocked")
		s.logger.Info("wizard.continue.blocked", "step", step, "unmet", unmet)
		return step, blocked(step, unmet)
	}
	if step >= constants.LastStep {
		return step, nil
	}
	s.metrics.IncGate(step.String(), "advanced")
	s.store.NextStep(ctx)
	return s.Step(), nil
}

// Back moves one step back without validating anything.
func (s *Session) Back(ctx context.Context) constants.Step {
	s.store.PrevStep(ctx)
	return s.Step()
}

// GoTo jumps to target. Going back is always allowed; going forward requires every gate in between.
func (s *Session) GoTo(ctx context.Context, target constants.Step) error {
	if !target.IsValid() {
		return common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("no step %d", int(target)), common.ErrInvalidInput)
	}
	snap := s.store.Snapshot()
	current := constants.Step(snap.CurrentStep)
	if target > current {
		if step, unmet, ok := FirstBlocked(current, target, snap.Inspection); ok {
			s.metrics.IncGate(step.String(), "blocked")
			return blocked(step, unmet)
		}
	}
	s.store.SetStep(ctx, int(target))
	return nil
}

// SetThirdParty declares or withdraws a third party. Withdrawing discards its data.
func (s *Session) SetThirdParty(ctx context.Context, present bool) {
	s.store.SetHasThirdParty(ctx, present)
}

// CaptureIdentity attaches one side of role's identity document. Once every side the country's
// document has is present, fields are extracted and merged into the identity snapshot; person
// fields the user has not filled are completed from it.
func (s *Session) CaptureIdentity(ctx context.Context, role constants.Role, side constants.Slot, raw []byte, c imageprep.Capture) (CaptureOutcome, error) {
	if side != constants.SlotIdentityFront && side != constants.SlotIdentityBack {
		return CaptureOutcome{}, common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("%s is not an identity side", side), common.ErrInvalidInput)
	}
	if _, err := s.person(role); err != nil {
		return CaptureOutcome{}, err
	}
	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return CaptureOutcome{}, err
	}
	out := CaptureOutcome{Check: s.classifier.Classify(ctx, img.JPEG, side)}

	patch := entity.IdentityDocumentPatch{}
	if side == constants.SlotIdentityFront {
		patch.FrontImage = &img.DataURL
		patch.FrontCheck = out.Check.Check()
	} else {
		patch.BackImage = &img.DataURL
		patch.BackCheck = out.Check.Check()
	}
	if !s.store.MergePerson(ctx, role, entity.PersonPatch{Identity: &patch}, inspection.Overwrite) {
		return out, noParty(role, "person")
	}

	doc := s.store.Inspection()
	p := doc.Person(role)
	if p == nil {
		return out, nil
	}
	id := p.Identity
	cf, _ := constants.LookupCountry(doc.Country)
	if id.FrontImage == nil || (cf.HasBackSide && id.BackImage == nil) {
		return out, nil
	}
	if res, ok := s.ExtractIdentity(ctx, role); ok {
		out.Identity = &res
	}
	return out, nil
}

// ExtractIdentity (re)reads the captured identity document of role. ok is false when there is
// nothing to read or no extractor is configured.
func (s *Session) ExtractIdentity(ctx context.Context, role constants.Role) (extract.IdentityResult, bool) {
	doc := s.store.Inspection()
	p := doc.Person(role)
	if s.extractor == nil || p == nil || p.Identity.FrontImage == nil {
		return extract.IdentityResult{}, false
	}
	front, err := imageprep.Bytes(*p.Identity.FrontImage)
	if err != nil {
		s.logger.Warn("wizard.identity.decode_failed", "role", role, "side", "front", "error", err)
		return extract.IdentityResult{}, false
	}
	var back []byte
	if p.Identity.BackImage != nil {
		if back, err = imageprep.Bytes(*p.Identity.BackImage); err != nil {
			s.logger.Warn("wizard.identity.decode_failed", "role", role, "side", "back", "error", err)
			back = nil
		}
	}

	res := s.extractor.ExtractIdentity(common.WithInspectionID(ctx, doc.ID.String()), front, back, doc.Country)
	idPatch := res.Patch(s.clock())
	if idPatch == nil {
		return res, true
	}
	// Person fields are offered as fill-ins; the store keeps whatever the user typed meanwhile.
	pp := entity.PersonPatch{Identity: idPatch}
	f := res.Fields
	offer := func(dst **string, value string) {
		if value != "" {
			*dst = utils.Ptr(value)
		}
	}
	offer(&pp.FullName, f.DisplayName())
	offer(&pp.DocumentNumber, f.DocumentNumber)
	offer(&pp.BirthDate, f.BirthDate)
	offer(&pp.Address, f.Address)
	if !s.store.MergePerson(ctx, role, pp, inspection.FillEmpty) {
		s.logger.Info("wizard.identity.discarded", "inspection_id", doc.ID, "role", role)
		return res, true
	}
	s.logger.Info("wizard.identity.extracted",
		"inspection_id", doc.ID,
		"role", role,
		"outcome", res.Outcome,
		"confidence", res.Confidence)
	return res, true
}

// ConfirmIdentity records the user's review of the extracted data: p is applied and the
// document is marked as validated.
func (s *Session) ConfirmIdentity(ctx context.Context, role constants.Role, p entity.PersonPatch) (bool, error) {
	v := common.NewValidator()
	v.Field("email", p.Email, common.Email)
	if err := v.Error(); err != nil {
		return false, common.NewAppError(common.CodeInvalidInput, "cannot confirm identity", err)
	}
	if _, err := s.person(role); err != nil {
		return false, err
	}
	if p.Identity == nil {
		p.Identity = &entity.IdentityDocumentPatch{}
	}
	p.Identity.Validated = utils.Ptr(true)
	if !s.store.MergePerson(ctx, role, p, inspection.Overwrite) {
		return false, noParty(role, "person")
	}
	return true, nil
}

var reVINField = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// EditVehicle applies user-entered vehicle data. VIN, year and mileage are checked when present.
func (s *Session) EditVehicle(ctx context.Context, role constants.Role, p entity.VehiclePatch) error {
	if p.VIN != nil {
		p.VIN = utils.Ptr(strings.ToUpper(strings.TrimSpace(*p.VIN)))
	}
	v := common.NewValidator()
	v.Field("vin", p.VIN, common.Pattern(reVINField, "must be 17 characters without I, O or Q"))
	v.Field("year", p.Year, common.Between(1900, s.clock().Year()+1))
	v.Field("mileage", p.Mileage, common.Between(0, 5_000_000))
	if err := v.Error(); err != nil {
		return common.NewAppError(common.CodeInvalidInput, "cannot update vehicle", err)
	}
	if _, err := s.vehicle(role); err != nil {
		return err
	}
	if !s.store.MergeVehicle(ctx, role, p, inspection.Overwrite) {
		return noParty(role, "vehicle")
	}
	return nil
}

// CaptureVehiclePhoto attaches raw to role's photo for slot, creating the photo when the vehicle
// has none for that slot. A front or rear capture on a vehicle without a plate runs plate reading.
func (s *Session) CaptureVehiclePhoto(ctx context.Context, role constants.Role, slot constants.Slot, raw []byte, c imageprep.Capture) (CaptureOutcome, error) {
	if _, err := s.vehicle(role); err != nil {
		return CaptureOutcome{}, err
	}
	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return CaptureOutcome{}, err
	}

	veh, err := s.vehicle(role)
	if err != nil {
		return CaptureOutcome{}, err
	}
	var id uuid.UUID
	if ph := veh.PhotoBySlot(slot); ph != nil {
		id = ph.ID
	} else {
		id = uuid.New()
		label := string(slot)
		if info, ok := constants.LookupSlot(slot); ok {
			label = info.Label
		}
		if !s.store.AddVehiclePhoto(ctx, role, entity.VehiclePhoto{ID: id, Slot: slot, Label: label}) {
			return CaptureOutcome{}, noParty(role, "vehicle")
		}
	}
	return s.attach(ctx, role, id, slot, img, c), nil
}

// AttachVehiclePhoto attaches raw to the photo with id. Late results for a photo are merged by id
// and never touch other photos.
func (s *Session) AttachVehiclePhoto(ctx context.Context, role constants.Role, id uuid.UUID, raw []byte, c imageprep.Capture) (CaptureOutcome, error) {
	veh, err := s.vehicle(role)
	if err != nil {
		return CaptureOutcome{}, err
	}
	var slot constants.Slot
	for _, ph := range veh.Photos {
		if ph.ID == id {
			slot = ph.Slot
		}
	}
	if slot == "" {
		return CaptureOutcome{}, common.NewAppError(common.CodeNotFound, fmt.Sprintf("no %s photo %s", role, id), common.ErrNotFound)
	}

	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return CaptureOutcome{}, err
	}
	return s.attach(ctx, role, id, slot, img, c), nil
}

func (s *Session) attach(ctx context.Context, role constants.Role, id uuid.UUID, slot constants.Slot, img imageprep.Image, c imageprep.Capture) CaptureOutcome {
	out := CaptureOutcome{PhotoID: id, Check: s.classifier.Classify(ctx, img.JPEG, slot)}
	at := s.capturedAt(c)
	s.store.UpdateVehiclePhoto(ctx, role, id, entity.PhotoPatch{
		Image:      &img.DataURL,
		Thumbnail:  &img.Thumbnail,
		CapturedAt: &at,
		Metadata:   img.Metadata(c),
		Check:      out.Check.Check(),
	})

	if slot != constants.SlotFront && slot != constants.SlotRear {
		return out
	}
	if veh := s.store.Inspection().Vehicle(role); veh != nil && veh.Plate == "" {
		if res, ok := s.readIdentifier(ctx, role, img.JPEG, extract.KindPlate); ok {
			out.Identifier = &res
		}
	}
	return out
}

// ExtractVIN reads a VIN from raw and stores it on role's vehicle when found.
func (s *Session) ExtractVIN(ctx context.Context, role constants.Role, raw []byte) (extract.IdentifierResult, error) {
	if _, err := s.vehicle(role); err != nil {
		return extract.IdentifierResult{}, err
	}
	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return extract.IdentifierResult{}, err
	}
	res, _ := s.readIdentifier(ctx, role, img.JPEG, extract.KindVIN)
	return res, nil
}

func (s *Session) readIdentifier(ctx context.Context, role constants.Role, image []byte, kind extract.IdentifierKind) (extract.IdentifierResult, bool) {
	if s.extractor == nil {
		return extract.IdentifierResult{Outcome: extract.OutcomeFailed}, false
	}
	doc := s.store.Inspection()
	res := s.extractor.ExtractVehicleIdentifier(common.WithInspectionID(ctx, doc.ID.String()), image, kind, doc.Country)
	if res.Value == nil {
		return res, true
	}
	// An explicit VIN scan replaces the VIN; a plate read during capture only fills an empty plate.
	var p entity.VehiclePatch
	mode := inspection.FillEmpty
	if kind == extract.KindVIN {
		p.VIN = res.Value
		mode = inspection.Overwrite
	} else {
		p.Plate = res.Value
	}
	if !s.store.MergeVehicle(ctx, role, p, mode) {
		s.logger.Info("wizard.identifier.discarded", "inspection_id", doc.ID, "role", role, "kind", kind)
		return res, true
	}
	s.logger.Info("wizard.identifier.read", "inspection_id", doc.ID, "role", role, "kind", kind, "outcome", res.Outcome)
	return res, true
}

// AddDamagePhoto stores a new damage photo and, when a damage analyzer is configured, attaches its
// findings. Analysis failures leave the photo without an analysis.
func (s *Session) AddDamagePhoto(ctx context.Context, raw []byte, description string, c imageprep.Capture) (CaptureOutcome, error) {
	if s.store.Inspection().Status != constants.StatusInProgress {
		return CaptureOutcome{}, common.ErrNoSession
	}
	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return CaptureOutcome{}, err
	}
	out := CaptureOutcome{PhotoID: uuid.New(), Check: s.classifier.Classify(ctx, img.JPEG, constants.SlotDamage)}
	s.store.AddDamagePhoto(ctx, entity.DamagePhoto{
		ID:          out.PhotoID,
		Image:       img.DataURL,
		Thumbnail:   &img.Thumbnail,
		Description: description,
		CapturedAt:  s.capturedAt(c),
		Check:       out.Check.Check(),
	})
	out.Analysis = s.analyzeDamage(ctx, out.PhotoID, img.JPEG, description)
	return out, nil
}

// RemoveDamagePhoto drops a damage photo by id.
func (s *Session) RemoveDamagePhoto(ctx context.Context, id uuid.UUID) bool {
	return s.store.RemoveDamagePhoto(ctx, id)
}

func (s *Session) analyzeDamage(ctx context.Context, id uuid.UUID, image []byte, description string) *entity.DamageAnalysis {
	if s.damage == nil {
		return nil
	}
	actx, cancel := context.WithTimeout(common.WithInspectionID(ctx, s.store.Inspection().ID.String()), s.damageWait)
	defer cancel()
	fields, _, err := s.damage.AnalyzeDamage(actx, llm.DamageRequest{Image: image, Description: description})
	if err != nil {
		s.logger.Warn("wizard.damage.analysis_failed", "photo_id", id, "error", err)
		return nil
	}
	a := fields.Entity(s.damageModel, s.clock())
	s.store.UpdateDamagePhoto(ctx, id, entity.DamagePhotoPatch{Analysis: &a})
	s.logger.Info("wizard.damage.analyzed", "photo_id", id, "findings", len(a.Findings))
	return &a
}

// AddScenePhoto stores a scene photo, creating the scene when needed.
func (s *Session) AddScenePhoto(ctx context.Context, raw []byte, description string, c imageprep.Capture) (CaptureOutcome, error) {
	if s.store.Inspection().Status != constants.StatusInProgress {
		return CaptureOutcome{}, common.ErrNoSession
	}
	img, err := s.prep.Prepare(ctx, raw)
	if err != nil {
		return CaptureOutcome{}, err
	}
	out := CaptureOutcome{PhotoID: uuid.New(), Check: s.classifier.Classify(ctx, img.JPEG, constants.SlotScene)}
	at := s.capturedAt(c)
	if s.store.Inspection().Scene == nil {
		s.store.UpdateScene(ctx, entity.ScenePatch{})
	}
	s.store.AddScenePhoto(ctx, entity.VehiclePhoto{
		ID:          out.PhotoID,
		Slot:        constants.SlotScene,
		Label:       "Scene",
		Description: description,
		Image:       &img.DataURL,
		Thumbnail:   &img.Thumbnail,
		CapturedAt:  &at,
		Metadata:    img.Metadata(c),
		Check:       out.Check.Check(),
	})
	return out, nil
}

// LocateScene records the current position and address on the scene. A failed fix leaves the
// scene without coordinates; the address can still be typed in with UpdateScene.
func (s *Session) LocateScene(ctx context.Context) geo.Fix {
	if s.locator == nil {
		return geo.Fix{Outcome: geo.OutcomeFailed, Err: errors.New("no position source")}
	}
	fix := s.locator.Locate(ctx)
	if p := fix.Patch(); p != nil {
		s.store.UpdateScene(ctx, *p)
	} else {
		s.logger.Info("wizard.scene.no_fix", "outcome", fix.Outcome, "error", fix.Err)
	}
	return fix
}

// Submit sends the inspection when every step is complete. On success the inspection becomes
// submitted and carries the reference. A failed primary write returns a SUBMISSION_FAILED error;
// the assembled payload is kept and the next Submit resumes it.
func (s *Session) Submit(ctx context.Context) (submission.Result, error) {
	if s.submitter == nil {
		return submission.Result{}, common.NewAppError(common.CodeSubmissionFailed, "no persistence configured", common.ErrInternal)
	}
	doc := s.store.Inspection()
	if doc.Status == constants.StatusSubmitted && doc.ReferenceID != "" {
		res := s.RetryPending(ctx)
		res.Reference = doc.ReferenceID
		return res, nil
	}
	if step, unmet, ok := FirstBlocked(constants.StepStart, constants.LastStep+1, doc); ok {
		return submission.Result{}, blocked(step, unmet)
	}

	var (
		res submission.Result
		err error
	)
	if prev := s.takePending(doc.ID); prev != nil {
		s.logger.Info("wizard.submit.retry", "inspection_id", doc.ID)
		res, err = s.submitter.Retry(ctx, *prev)
	} else {
		res, err = s.submitter.Submit(ctx, doc)
	}
	if err != nil {
		s.keepPending(res)
		return res, err
	}

	status := constants.StatusSubmitted
	submittedAt := res.Payload.Inspection.SubmittedAt
	s.store.UpdateInspection(ctx, entity.InspectionPatch{
		Status:      &status,
		ReferenceID: &res.Reference,
		SubmittedAt: &submittedAt,
	})
	if !res.Done() {
		s.keepPending(res)
	}
	s.logger.Info("wizard.submit.done", "inspection_id", doc.ID, "reference", res.Reference, "pending", res.Pending)
	return res, nil
}

// RetryPending re-attempts the secondary writes left over from the last submission.
func (s *Session) RetryPending(ctx context.Context) submission.Result {
	s.mu.Lock()
	prev := s.pending
	s.mu.Unlock()
	if prev == nil || s.submitter == nil {
		return submission.Result{}
	}
	res := s.submitter.RetrySecondary(ctx, *prev)
	if res.Done() {
		s.clearPending()
	} else {
		s.keepPending(res)
	}
	return res
}

// Pending returns the unfinished submission, if any.
func (s *Session) Pending() (submission.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return submission.Result{}, false
	}
	return *s.pending, true
}

// Reset discards the inspection and any unfinished submission.
func (s *Session) Reset(ctx context.Context) {
	s.clearPending()
	s.store.ResetInspection(ctx)
}

// person returns role's person, refusing the third party while none is declared.
func (s *Session) person(role constants.Role) (*entity.Person, error) {
	doc := s.store.Inspection()
	if role == constants.RoleThirdParty && !doc.HasThirdParty {
		return nil, noParty(role, "person")
	}
	if p := doc.Person(role); p != nil {
		return p, nil
	}
	return nil, noParty(role, "person")
}

// vehicle returns role's vehicle, refusing the third party while none is declared.
func (s *Session) vehicle(role constants.Role) (*entity.Vehicle, error) {
	doc := s.store.Inspection()
	if role == constants.RoleThirdParty && !doc.HasThirdParty {
		return nil, noParty(role, "vehicle")
	}
	if v := doc.Vehicle(role); v != nil {
		return v, nil
	}
	return nil, noParty(role, "vehicle")
}

func noParty(role constants.Role, what string) error {
	return common.NewAppError(common.CodeNotFound, fmt.Sprintf("no %s %s", role, what), common.ErrNotFound)
}

func (s *Session) keepPending(res submission.Result) {
	s.mu.Lock()
	s.pending = &res
	s.mu.Unlock()
}

func (s *Session) takePending(id uuid.UUID) *submission.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.pending
	s.pending = nil
	if prev == nil || prev.Payload.Inspection.ID != id {
		return nil
	}
	return prev
}

func (s *Session) clearPending() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) capturedAt(c imageprep.Capture) time.Time {
	if !c.CapturedAt.IsZero() {
		return c.CapturedAt
	}
	return s.clock()
}

// Process handles a background capture job; Session satisfies capture.Processor.
func (s *Session) Process(ctx context.Context, job capture.Job) error {
	ctx = common.WithRequestID(ctx, job.ID.String())
	t := job.Target
	role := t.Role
	if role == "" {
		role = constants.RoleInsured
	}
	var err error
	switch {
	case t.IsIdentity():
		_, err = s.CaptureIdentity(ctx, role, t.Slot, job.Image, job.Capture)
	case t.Slot == constants.SlotDamage:
		_, err = s.AddDamagePhoto(ctx, job.Image, t.Description, job.Capture)
	case t.Slot == constants.SlotScene:
		_, err = s.AddScenePhoto(ctx, job.Image, t.Description, job.Capture)
	case t.PhotoID != nil:
		_, err = s.AttachVehiclePhoto(ctx, role, *t.PhotoID, job.Image, job.Capture)
	default:
		_, err = s.CaptureVehiclePhoto(ctx, role, t.Slot, job.Image, job.Capture)
	}
	if err != nil {
		return fmt.Errorf("capture %s %s: %w", role, t.Slot, err)
	}
	return nil
}

var _ capture.Processor = (*Session)(nil)
