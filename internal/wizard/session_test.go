package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

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
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

var testNow = time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// passthroughPrep keeps the raw bytes so fakes downstream can key on them.
type passthroughPrep struct{ err error }

func (p passthroughPrep) Prepare(_ context.Context, raw []byte) (imageprep.Image, error) {
	if p.err != nil {
		return imageprep.Image{}, p.err
	}
	return imageprep.Image{
		JPEG:      raw,
		DataURL:   imageprep.EncodeDataURL(imageprep.MimeJPEG, raw),
		Thumbnail: imageprep.EncodeDataURL(imageprep.MimeJPEG, []byte("thumb")),
		Width:     640,
		Height:    480,
	}, nil
}

type staticClassifier struct{ res classify.Result }

func (c staticClassifier) Classify(context.Context, []byte, constants.Slot) classify.Result {
	return c.res
}

type fakeExtractor struct {
	mu         sync.Mutex
	identity   extract.IdentityResult
	plate      *string
	vin        *string
	idCalls    int
	plateCalls int
	lastFront  []byte
	lastBack   []byte
	// during runs while an extraction is in flight, before its result is returned.
	during func()
}

func (f *fakeExtractor) inFlight() {
	if f.during != nil {
		f.during()
	}
}

func (f *fakeExtractor) ExtractIdentity(_ context.Context, front, back []byte, _ string) extract.IdentityResult {
	f.inFlight()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idCalls++
	f.lastFront, f.lastBack = front, back
	return f.identity
}

func (f *fakeExtractor) ExtractVehicleIdentifier(_ context.Context, _ []byte, kind extract.IdentifierKind, _ string) extract.IdentifierResult {
	f.inFlight()
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.plate
	if kind == extract.KindVIN {
		v = f.vin
	} else {
		f.plateCalls++
	}
	if v == nil {
		return extract.IdentifierResult{Outcome: extract.OutcomeNotFound}
	}
	return extract.IdentifierResult{Value: v, Confidence: 0.8, Outcome: extract.OutcomeOCR}
}

type fakeLocator struct{ fix geo.Fix }

func (l fakeLocator) Locate(context.Context) geo.Fix { return l.fix }

type fakeDamage struct {
	fields llm.DamageFields
	err    error
}

func (d fakeDamage) AnalyzeDamage(context.Context, llm.DamageRequest) (llm.DamageFields, []byte, error) {
	return d.fields, nil, d.err
}

type fakePersister struct {
	mu          sync.Mutex
	inspErr     error
	photoErr    error
	inspections []submission.InspectionRecord
	photos      []submission.PhotoRecord
	consents    int
}

func (p *fakePersister) CreateInspection(_ context.Context, rec submission.InspectionRecord) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inspErr != nil {
		return "", p.inspErr
	}
	p.inspections = append(p.inspections, rec)
	return "INS-0000000001", nil
}

func (p *fakePersister) CreatePhotos(_ context.Context, _ string, recs []submission.PhotoRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.photoErr != nil {
		return p.photoErr
	}
	p.photos = append(p.photos, recs...)
	return nil
}

func (p *fakePersister) CreateFindings(context.Context, string, []submission.FindingRecord) error {
	return nil
}

func (p *fakePersister) CreateConsent(context.Context, string, submission.ConsentRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consents++
	return nil
}

type SessionSuite struct {
	suite.Suite
	ctx       context.Context
	extractor *fakeExtractor
	persister *fakePersister
	locator   *fakeLocator
	session   *Session
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.extractor = &fakeExtractor{
		identity: extract.IdentityResult{
			Fields: entity.ExtractedIdentity{
				FullName:       "MARIA LOPEZ",
				DocumentNumber: "LOPM850101MDFPRR09",
				BirthDate:      "1985-01-01",
			},
			Confidence: 0.95,
			Source:     "remote",
			Outcome:    extract.OutcomeRemote,
		},
	}
	s.persister = &fakePersister{}
	s.locator = &fakeLocator{}
	store := inspection.NewStore(s.ctx, inspection.WithClock(testClock))
	sub := submission.NewSubmitter(submission.NewAssembler(submission.DefaultWeights(), testClock), s.persister)
	s.session = NewSession(store,
		WithPreparer(passthroughPrep{}),
		WithClassifier(staticClassifier{classify.Result{Accepted: true, Detected: constants.CategoryUnknown, Outcome: classify.OutcomeLowConfidence}}),
		WithExtractor(s.extractor),
		WithLocator(s.locator),
		WithSubmitter(sub),
		WithClock(testClock),
	)
}

func (s *SessionSuite) gateErr(err error) *GateError {
	s.Require().Error(err)
	s.True(common.HasCode(err, common.CodeGateBlocked))
	var ge *GateError
	s.Require().True(errors.As(err, &ge))
	return ge
}

// completeThrough drives a fresh MX collision inspection to the summary step.
func (s *SessionSuite) completeThrough() {
	ctx := s.ctx
	_, err := s.session.Start(ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	_, err = s.session.CaptureIdentity(ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("ine-front"), imageprep.Capture{})
	s.Require().NoError(err)
	_, err = s.session.CaptureIdentity(ctx, constants.RoleInsured, constants.SlotIdentityBack, []byte("ine-back"), imageprep.Capture{})
	s.Require().NoError(err)
	ok, err := s.session.ConfirmIdentity(ctx, constants.RoleInsured, entity.PersonPatch{Phone: utils.Ptr("+52 55 1234 5678")})
	s.Require().NoError(err)
	s.True(ok)
	s.Require().NoError(continueOK(s.session, ctx, constants.StepVehiclePhotos))

	for _, slot := range constants.VehicleChecklist() {
		_, err := s.session.CaptureVehiclePhoto(ctx, constants.RoleInsured, slot.Slot, []byte("photo-"+string(slot.Slot)), imageprep.Capture{})
		s.Require().NoError(err)
	}
	s.Require().NoError(continueOK(s.session, ctx, constants.StepVehicleData))

	s.Require().NoError(s.session.EditVehicle(ctx, constants.RoleInsured, entity.VehiclePatch{
		Plate: utils.Ptr("ABC1234"),
		Brand: utils.Ptr("Toyota"),
		Model: utils.Ptr("Corolla"),
		Color: utils.Ptr("white"),
		Year:  utils.Ptr(2019),
	}))
	s.Require().NoError(continueOK(s.session, ctx, constants.StepDamagePhotos))
	s.Require().NoError(continueOK(s.session, ctx, constants.StepThirdParty))

	s.session.SetThirdParty(ctx, false)
	s.Require().NoError(continueOK(s.session, ctx, constants.StepScene))

	s.session.Store().UpdateScene(ctx, entity.ScenePatch{Description: utils.Ptr("Choque en cruce")})
	s.Require().NoError(continueOK(s.session, ctx, constants.StepSummary))

	s.session.Store().UpdateConsent(ctx, entity.ConsentPatch{
		Accepted:   utils.Ptr(true),
		Signature:  utils.Ptr("data:image/png;base64,c2lnbmF0dXJl"),
		AcceptedAt: utils.Ptr(testNow),
	})
}

func continueOK(sess *Session, ctx context.Context, want constants.Step) error {
	got, err := sess.Continue(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return errors.New("continued to " + got.String() + ", want " + want.String())
	}
	return nil
}

func (s *SessionSuite) TestEndToEndMexicoCollision() {
	s.completeThrough()

	res, err := s.session.Submit(s.ctx)
	s.Require().NoError(err)
	s.True(res.Done())
	s.Equal("INS-0000000001", res.Reference)

	s.Require().Len(s.persister.inspections, 1)
	rec := s.persister.inspections[0]
	s.False(rec.HasThirdParty)
	s.Equal("ABC1234", rec.Plate)
	s.Equal("Toyota", rec.Brand)
	s.Equal("MX", rec.Country)
	// No VIN and no scene address cost 5 each; the signature adds 5.
	s.Equal(95, rec.QualityScore)
	s.Contains(rec.Tags, "accident:collision")
	s.Contains(rec.Tags, "status:submitted")

	// 2 identity sides + 12 checklist photos.
	s.Len(s.persister.photos, 14)
	s.Equal(1, s.persister.consents)

	doc := s.session.Store().Inspection()
	s.Equal(constants.StatusSubmitted, doc.Status)
	s.Equal("INS-0000000001", doc.ReferenceID)
	s.Require().NotNil(doc.SubmittedAt)
	s.Equal(testNow, *doc.SubmittedAt)
	s.Equal(12, doc.InsuredVehicle.CapturedPhotos())
}

func (s *SessionSuite) TestIdentityExtractionRunsOnceBothSidesArePresent() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentTheft)
	s.Require().NoError(err)

	out, err := s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("front"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Nil(out.Identity, "MX documents have a back side")
	s.Zero(s.extractor.idCalls)

	out, err = s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityBack, []byte("back"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(out.Identity)
	s.Equal(1, s.extractor.idCalls)
	s.Equal([]byte("front"), s.extractor.lastFront)
	s.Equal([]byte("back"), s.extractor.lastBack)

	p := s.session.Store().Inspection().InsuredPerson
	s.Equal("MARIA LOPEZ", p.FullName)
	s.Equal("LOPM850101MDFPRR09", p.DocumentNumber)
	s.Equal("remote", p.Identity.Source)
	s.InDelta(0.95, p.Identity.Confidence, 1e-6)
	s.False(p.Identity.Validated)
	s.Require().NotNil(p.Identity.FrontCheck)
	s.True(p.Identity.FrontCheck.Accepted)
}

func (s *SessionSuite) TestIdentityExtractionKeepsTypedFields() {
	_, err := s.session.Start(s.ctx, "PE", constants.AccidentGlass)
	s.Require().NoError(err)
	s.session.Store().UpdatePerson(s.ctx, constants.RoleInsured, entity.PersonPatch{FullName: utils.Ptr("María López")})

	out, err := s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("dni"), imageprep.Capture{})
	s.Require().NoError(err)
	s.NotNil(out.Identity, "PE documents have no back side")

	p := s.session.Store().Inspection().InsuredPerson
	s.Equal("María López", p.FullName)
	s.Equal("LOPM850101MDFPRR09", p.DocumentNumber)
	s.Equal("MARIA LOPEZ", p.Identity.Extracted.FullName)
}

func (s *SessionSuite) TestSlowExtractionKeepsFieldsTypedMeanwhile() {
	s.extractor.identity.Fields.FullName = "OCR GUESS"
	s.extractor.plate = utils.Ptr("OCR-999")
	_, err := s.session.Start(s.ctx, "PE", constants.AccidentGlass)
	s.Require().NoError(err)

	// The user types while recognition is still running.
	s.extractor.during = func() {
		s.session.Store().UpdatePerson(s.ctx, constants.RoleInsured, entity.PersonPatch{FullName: utils.Ptr("Typed By User")})
	}
	out, err := s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("dni"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(out.Identity)

	s.extractor.during = func() {
		s.session.Store().UpdateVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{Plate: utils.Ptr("USR-123")})
	}
	vout, err := s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotFront, []byte("front"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(vout.Identifier)
	s.Equal("OCR-999", utils.Deref(vout.Identifier.Value))

	doc := s.session.Store().Inspection()
	s.Equal("Typed By User", doc.InsuredPerson.FullName)
	s.Equal("LOPM850101MDFPRR09", doc.InsuredPerson.DocumentNumber, "empty fields are still completed")
	s.Equal("OCR GUESS", doc.InsuredPerson.Identity.Extracted.FullName)
	s.Equal("USR-123", doc.InsuredVehicle.Plate)
}

func (s *SessionSuite) TestFailedIdentityExtractionLeavesImagesOnly() {
	s.extractor.identity = extract.IdentityResult{Outcome: extract.OutcomeFailed}
	_, err := s.session.Start(s.ctx, "PE", constants.AccidentGlass)
	s.Require().NoError(err)

	out, err := s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("blurry"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(out.Identity)
	s.Equal(extract.OutcomeFailed, out.Identity.Outcome)

	p := s.session.Store().Inspection().InsuredPerson
	s.NotNil(p.Identity.FrontImage)
	s.Nil(p.Identity.Extracted)
	s.Empty(p.FullName)
}

func (s *SessionSuite) TestFrontPhotoReadsPlate() {
	s.extractor.plate = utils.Ptr("ABC-12-34")
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	out, err := s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotFront, []byte("front"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(out.Identifier)
	s.Equal("ABC-12-34", s.session.Store().Inspection().InsuredVehicle.Plate)

	// Plate already known: the rear photo does not read it again.
	_, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotRear, []byte("rear"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Equal(1, s.extractor.plateCalls)

	// Other slots never read plates.
	_, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotDashboard, []byte("dash"), imageprep.Capture{})
	s.Require().NoError(err)
	s.Equal(1, s.extractor.plateCalls)
}

func (s *SessionSuite) TestVehiclePhotoMetadataAndThirdPartySlots() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)
	lat, lng := 19.4326, -99.1332
	shot := time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)

	out, err := s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotLeftSide, []byte("left"),
		imageprep.Capture{Latitude: &lat, Longitude: &lng, DeviceModel: "Pixel 8", CapturedAt: shot})
	s.Require().NoError(err)

	ph := s.session.Store().Inspection().InsuredVehicle.PhotoBySlot(constants.SlotLeftSide)
	s.Require().NotNil(ph)
	s.Equal(out.PhotoID, ph.ID)
	s.True(ph.HasImage())
	s.Equal(shot, *ph.CapturedAt)
	s.Equal("Pixel 8", ph.Metadata.DeviceModel)
	s.Equal(lat, *ph.Metadata.Latitude)

	_, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleThirdParty, constants.SlotFront, []byte("tp"), imageprep.Capture{})
	s.True(common.HasCode(err, common.CodeNotFound), "no third party declared yet")

	s.session.SetThirdParty(s.ctx, true)
	out, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleThirdParty, constants.SlotFront, []byte("tp"), imageprep.Capture{})
	s.Require().NoError(err)
	tp := s.session.Store().Inspection().ThirdPartyVehicle
	s.Require().Len(tp.Photos, 1)
	s.Equal(out.PhotoID, tp.Photos[0].ID)
	s.Equal(constants.SlotFront, tp.Photos[0].Slot)
}

func (s *SessionSuite) TestExtractVIN() {
	s.extractor.vin = utils.Ptr("1HGCM82633A004352")
	_, err := s.session.Start(s.ctx, "US", constants.AccidentOther)
	s.Require().NoError(err)

	res, err := s.session.ExtractVIN(s.ctx, constants.RoleInsured, []byte("door-jamb"))
	s.Require().NoError(err)
	s.Equal("1HGCM82633A004352", utils.Deref(res.Value))
	s.Equal("1HGCM82633A004352", s.session.Store().Inspection().InsuredVehicle.VIN)
}

func (s *SessionSuite) TestCapturePrepareFailureIsReturned() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)
	s.session.prep = passthroughPrep{err: errors.New("decode capture: unexpected EOF")}

	_, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, constants.SlotFront, []byte("x"), imageprep.Capture{})
	s.Error(err)
	s.Zero(s.session.Store().Inspection().InsuredVehicle.CapturedPhotos())

	// A slot the vehicle has no photo for gets none when the capture cannot be prepared.
	s.session.SetThirdParty(s.ctx, true)
	_, err = s.session.CaptureVehiclePhoto(s.ctx, constants.RoleThirdParty, constants.SlotRear, []byte("x"), imageprep.Capture{})
	s.Error(err)
	s.Empty(s.session.Store().Inspection().ThirdPartyVehicle.Photos)
}

func (s *SessionSuite) TestDamagePhotoAnalysis() {
	s.session.damage = fakeDamage{fields: llm.DamageFields{Findings: []llm.DamageFindingFields{
		{Part: "front_bumper", Type: "dent", Severity: "moderate", Confidence: 0.8},
	}}}
	s.session.damageModel = "gemini-1.5-flash"
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	out, err := s.session.AddDamagePhoto(s.ctx, []byte("dent"), "golpe frontal", imageprep.Capture{})
	s.Require().NoError(err)
	s.Require().NotNil(out.Analysis)

	doc := s.session.Store().Inspection()
	s.Require().Len(doc.DamagePhotos, 1)
	d := doc.DamagePhotos[0]
	s.Equal(out.PhotoID, d.ID)
	s.Equal("golpe frontal", d.Description)
	s.Require().NotNil(d.Analysis)
	s.Equal("gemini-1.5-flash", d.Analysis.Model)
	s.Equal(constants.Severity("moderate"), d.Analysis.Findings[0].Severity)

	s.True(s.session.RemoveDamagePhoto(s.ctx, out.PhotoID))
	s.Empty(s.session.Store().Inspection().DamagePhotos)
}

func (s *SessionSuite) TestDamageAnalysisFailureKeepsPhoto() {
	s.session.damage = fakeDamage{err: errors.New("quota exceeded")}
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	out, err := s.session.AddDamagePhoto(s.ctx, []byte("dent"), "", imageprep.Capture{})
	s.Require().NoError(err)
	s.Nil(out.Analysis)
	doc := s.session.Store().Inspection()
	s.Require().Len(doc.DamagePhotos, 1)
	s.Nil(doc.DamagePhotos[0].Analysis)
}

func (s *SessionSuite) TestScenePhotoCreatesScene() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)
	s.Nil(s.session.Store().Inspection().Scene)

	out, err := s.session.AddScenePhoto(s.ctx, []byte("crossing"), "cruce", imageprep.Capture{})
	s.Require().NoError(err)
	scene := s.session.Store().Inspection().Scene
	s.Require().NotNil(scene)
	s.Require().Len(scene.Photos, 1)
	s.Equal(out.PhotoID, scene.Photos[0].ID)
	s.Equal(constants.SlotScene, scene.Photos[0].Slot)
}

func (s *SessionSuite) TestGeolocationDeniedDoesNotBlockScene() {
	s.locator.fix = geo.Fix{Outcome: geo.OutcomeFailed, Err: errors.New("permission denied")}
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	fix := s.session.LocateScene(s.ctx)
	s.Equal(geo.OutcomeFailed, fix.Outcome)
	s.False(s.session.Store().Inspection().Scene.HasCoordinates())

	// Manual address entry, then the description unlocks the step.
	s.session.Store().SetStep(s.ctx, int(constants.StepScene))
	s.session.Store().UpdateScene(s.ctx, entity.ScenePatch{Address: utils.Ptr("Av. Reforma 222, CDMX")})
	_, err = s.session.Continue(s.ctx)
	ge := s.gateErr(err)
	s.Equal(constants.StepScene, ge.Step)
	s.Equal([]string{"scene description is required"}, ge.Unmet)

	s.session.Store().UpdateScene(s.ctx, entity.ScenePatch{Description: utils.Ptr("Choque en cruce")})
	s.NoError(continueOK(s.session, s.ctx, constants.StepSummary))

	scene := s.session.Store().Inspection().Scene
	s.False(scene.HasCoordinates())
	s.Equal("Av. Reforma 222, CDMX", scene.Address)
}

func (s *SessionSuite) TestLocateSceneRecordsFix() {
	s.locator.fix = geo.Fix{
		Position: &geo.Position{Latitude: 8.98, Longitude: -79.52},
		Address:  "Calle 50, Panamá",
		Outcome:  geo.OutcomeOK,
	}
	_, err := s.session.Start(s.ctx, "PA", constants.AccidentCollision)
	s.Require().NoError(err)

	s.session.LocateScene(s.ctx)
	scene := s.session.Store().Inspection().Scene
	s.Require().True(scene.HasCoordinates())
	s.Equal(8.98, *scene.Latitude)
	s.Equal("Calle 50, Panamá", scene.Address)
}

func (s *SessionSuite) TestBackNeverValidates() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	_, err = s.session.Continue(s.ctx)
	ge := s.gateErr(err)
	s.Equal(constants.StepIdentity, ge.Step)
	s.Equal(constants.StepIdentity, s.session.Step())

	s.Equal(constants.StepStart, s.session.Back(s.ctx))
	s.Equal(constants.StepStart, s.session.Back(s.ctx), "clamped at the first step")

	s.session.Store().SetStep(s.ctx, int(constants.StepSummary))
	s.NoError(s.session.GoTo(s.ctx, constants.StepIdentity))
	s.Equal(constants.StepIdentity, s.session.Step())
}

func (s *SessionSuite) TestGoToForwardChecksEveryGateInBetween() {
	_, err := s.session.Start(s.ctx, "PE", constants.AccidentCollision)
	s.Require().NoError(err)
	_, err = s.session.CaptureIdentity(s.ctx, constants.RoleInsured, constants.SlotIdentityFront, []byte("dni"), imageprep.Capture{})
	s.Require().NoError(err)

	err = s.session.GoTo(s.ctx, constants.StepScene)
	ge := s.gateErr(err)
	s.Equal(constants.StepVehiclePhotos, ge.Step)
	s.Equal(constants.StepIdentity, s.session.Step())

	s.Error(s.session.GoTo(s.ctx, constants.Step(9)))
}

func (s *SessionSuite) TestStartValidates() {
	_, err := s.session.Start(s.ctx, "", constants.AccidentType("meteor"))
	s.True(common.HasCode(err, common.CodeInvalidInput))
	s.ErrorIs(err, common.ErrValidation)
	s.Equal(constants.StepStart, s.session.Step())
}

func (s *SessionSuite) TestSubmitRequiresCompleteInspection() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)
	_, err = s.session.Submit(s.ctx)
	s.gateErr(err)
	s.Empty(s.persister.inspections)
}

func (s *SessionSuite) TestSubmitFailureKeepsPayloadForRetry() {
	s.completeThrough()
	s.persister.inspErr = errors.New("connection refused")

	_, err := s.session.Submit(s.ctx)
	s.Require().Error(err)
	s.True(common.HasCode(err, common.CodeSubmissionFailed))
	pending, ok := s.session.Pending()
	s.Require().True(ok)
	s.Empty(pending.Reference)
	s.Equal(constants.StatusInProgress, s.session.Store().Inspection().Status)

	s.persister.inspErr = nil
	res, err := s.session.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("INS-0000000001", res.Reference)
	s.Equal(pending.Payload.Inspection.ID, res.Payload.Inspection.ID)
	s.Equal(constants.StatusSubmitted, s.session.Store().Inspection().Status)
	_, ok = s.session.Pending()
	s.False(ok)
}

func (s *SessionSuite) TestSecondaryFailureIsRetriedWithSameReference() {
	s.completeThrough()
	s.persister.photoErr = errors.New("timeout")

	res, err := s.session.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{submission.KindPhotos}, res.Pending)
	s.Equal("INS-0000000001", s.session.Store().Inspection().ReferenceID)

	s.persister.photoErr = nil
	res, err = s.session.Submit(s.ctx)
	s.Require().NoError(err)
	s.True(res.Done())
	s.Equal("INS-0000000001", res.Reference)
	s.Len(s.persister.inspections, 1, "the inspection record is written once")
	s.Len(s.persister.photos, 14)
}

func (s *SessionSuite) TestResubmitReturnsReference() {
	s.completeThrough()
	_, err := s.session.Submit(s.ctx)
	s.Require().NoError(err)

	res, err := s.session.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("INS-0000000001", res.Reference)
	s.True(res.Done())
	s.Len(s.persister.inspections, 1)
}

func (s *SessionSuite) TestProcessRoutesCaptureJobs() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)
	rear := s.session.Store().Inspection().InsuredVehicle.PhotoBySlot(constants.SlotRear).ID

	jobs := []capture.Job{
		{ID: uuid.New(), Target: capture.Target{Role: constants.RoleInsured, Slot: constants.SlotIdentityFront}, Image: []byte("id")},
		{ID: uuid.New(), Target: capture.Target{Role: constants.RoleInsured, Slot: constants.SlotTrunk}, Image: []byte("trunk")},
		{ID: uuid.New(), Target: capture.Target{Slot: constants.SlotRear, PhotoID: &rear}, Image: []byte("rear")},
		{ID: uuid.New(), Target: capture.Target{Slot: constants.SlotDamage, Description: "scratch"}, Image: []byte("d")},
		{ID: uuid.New(), Target: capture.Target{Slot: constants.SlotScene}, Image: []byte("s")},
	}
	for _, j := range jobs {
		s.Require().NoError(s.session.Process(s.ctx, j))
	}

	doc := s.session.Store().Inspection()
	s.NotNil(doc.InsuredPerson.Identity.FrontImage)
	s.True(doc.InsuredVehicle.PhotoBySlot(constants.SlotTrunk).HasImage())
	s.True(doc.InsuredVehicle.PhotoBySlot(constants.SlotRear).HasImage())
	s.Len(doc.DamagePhotos, 1)
	s.Len(doc.Scene.Photos, 1)

	missing := uuid.New()
	err = s.session.Process(s.ctx, capture.Job{Target: capture.Target{Slot: constants.SlotFront, PhotoID: &missing}, Image: []byte("x")})
	s.True(common.HasCode(err, common.CodeNotFound))
}

func (s *SessionSuite) TestConcurrentCapturesDoNotLoseEachOther() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for _, slot := range constants.VehicleChecklist() {
		wg.Add(1)
		go func(slot constants.Slot) {
			defer wg.Done()
			_, err := s.session.CaptureVehiclePhoto(s.ctx, constants.RoleInsured, slot, []byte(slot), imageprep.Capture{})
			s.NoError(err)
		}(slot.Slot)
	}
	wg.Wait()
	s.Equal(12, s.session.Store().Inspection().InsuredVehicle.CapturedPhotos())
}

func (s *SessionSuite) TestEditVehicleValidatesInput() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	err = s.session.EditVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{VIN: utils.Ptr("1HGCM82633A00435O")})
	s.True(common.HasCode(err, common.CodeInvalidInput))
	s.ErrorIs(err, common.ErrValidation)

	err = s.session.EditVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{Year: utils.Ptr(1850), Mileage: utils.Ptr(-1)})
	s.Require().Error(err)
	s.Contains(err.Error(), "year must be between 1900 and 2027")
	s.Contains(err.Error(), "mileage must be between")

	s.Require().NoError(s.session.EditVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{VIN: utils.Ptr(" 1hgcm82633a004352 ")}))
	s.Equal("1HGCM82633A004352", s.session.Store().Inspection().InsuredVehicle.VIN)

	err = s.session.EditVehicle(s.ctx, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("X")})
	s.True(common.HasCode(err, common.CodeNotFound))
}

func (s *SessionSuite) TestThirdPartyRequiresDeclaration() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	_, err = s.session.CaptureIdentity(s.ctx, constants.RoleThirdParty, constants.SlotIdentityFront, []byte("ine"), imageprep.Capture{})
	s.True(common.HasCode(err, common.CodeNotFound))
	ok, err := s.session.ConfirmIdentity(s.ctx, constants.RoleThirdParty, entity.PersonPatch{FullName: utils.Ptr("Juan Pérez")})
	s.False(ok)
	s.True(common.HasCode(err, common.CodeNotFound))
	_, err = s.session.ExtractVIN(s.ctx, constants.RoleThirdParty, []byte("vin"))
	s.True(common.HasCode(err, common.CodeNotFound))
	err = s.session.EditVehicle(s.ctx, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("XYZ-98-76")})
	s.True(common.HasCode(err, common.CodeNotFound))

	doc := s.session.Store().Inspection()
	s.Nil(doc.ThirdPartyPerson)
	s.Nil(doc.ThirdPartyVehicle)

	s.session.SetThirdParty(s.ctx, true)
	ok, err = s.session.ConfirmIdentity(s.ctx, constants.RoleThirdParty, entity.PersonPatch{FullName: utils.Ptr("Juan Pérez")})
	s.Require().NoError(err)
	s.True(ok)
	s.Require().NoError(s.session.EditVehicle(s.ctx, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("XYZ-98-76")}))
	s.Equal("XYZ-98-76", s.session.Store().Inspection().ThirdPartyVehicle.Plate)

	s.session.SetThirdParty(s.ctx, false)
	err = s.session.EditVehicle(s.ctx, constants.RoleThirdParty, entity.VehiclePatch{Plate: utils.Ptr("XYZ-98-76")})
	s.True(common.HasCode(err, common.CodeNotFound))
	s.Nil(s.session.Store().Inspection().ThirdPartyVehicle)
}

func (s *SessionSuite) TestConfirmIdentityRejectsBadEmail() {
	_, err := s.session.Start(s.ctx, "MX", constants.AccidentCollision)
	s.Require().NoError(err)

	ok, err := s.session.ConfirmIdentity(s.ctx, constants.RoleInsured, entity.PersonPatch{Email: utils.Ptr("not-an-address")})
	s.False(ok)
	s.True(common.HasCode(err, common.CodeInvalidInput))
	s.False(s.session.Store().Inspection().InsuredPerson.Identity.Validated)

	ok, err = s.session.ConfirmIdentity(s.ctx, constants.RoleInsured, entity.PersonPatch{Email: utils.Ptr("ana@example.com")})
	s.Require().NoError(err)
	s.True(ok)
	s.True(s.session.Store().Inspection().InsuredPerson.Identity.Validated)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func TestSessionWithoutSubmitter(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(inspection.NewStore(ctx), WithPreparer(passthroughPrep{}))
	_, err := sess.Submit(ctx)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeSubmissionFailed))

	fix := sess.LocateScene(ctx)
	assert.Equal(t, geo.OutcomeFailed, fix.Outcome)

	_, err = sess.AddDamagePhoto(ctx, []byte("x"), "", imageprep.Capture{})
	assert.ErrorIs(t, err, common.ErrNoSession)
}
