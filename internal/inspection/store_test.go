package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/utils"
)

type memorySnapshots struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	deletes int
	saveErr error
	loadErr error
	log     []string
}

func (m *memorySnapshots) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memorySnapshots) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.log = append(m.log, "save")
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memorySnapshots) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.log = append(m.log, "delete")
	m.data = nil
	return nil
}

func (m *memorySnapshots) decoded() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var snap Snapshot
	_ = json.Unmarshal(m.data, &snap)
	return snap
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	clock *fakeClock
	snaps *memorySnapshots
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	s.snaps = &memorySnapshots{}
	s.store = s.newStore()
}

func (s *StoreSuite) newStore() *Store {
	return NewStore(s.ctx, WithClock(s.clock.now), WithSnapshotStore(s.snaps))
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestInitInspection() {
	doc := s.store.InitInspection(s.ctx, "MX", constants.AccidentCollision)

	s.Equal(1, s.store.Step())
	s.Equal("MX", doc.Country)
	s.Equal(constants.StatusInProgress, doc.Status)
	s.Require().NotNil(doc.InsuredPerson)
	s.Require().NotNil(doc.InsuredVehicle)
	s.Len(doc.InsuredVehicle.Photos, 12)
	s.Nil(doc.ThirdPartyPerson)

	persisted := s.snaps.decoded()
	s.Equal(doc.ID, persisted.Inspection.ID)
	s.Equal(1, persisted.CurrentStep)
}

func (s *StoreSuite) TestEveryMutationStampsUpdatedAt() {
	s.store.InitInspection(s.ctx, "PA", constants.AccidentTheft)
	created := s.store.Inspection().UpdatedAt

	s.clock.advance(time.Minute)
	s.Require().True(s.store.UpdateVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{Color: utils.Ptr("white")}))
	s.Equal(created.Add(time.Minute), s.store.Inspection().UpdatedAt)

	s.clock.advance(time.Minute)
	s.store.UpdateScene(s.ctx, entity.ScenePatch{Address: utils.Ptr("Calle 50")})
	s.Equal(created.Add(2*time.Minute), s.store.Inspection().UpdatedAt)
}

func (s *StoreSuite) TestNoopDoesNotPersist() {
	s.store.InitInspection(s.ctx, "PA", constants.AccidentTheft)
	saves := s.snaps.saves

	s.False(s.store.AddScenePhoto(s.ctx, entity.VehiclePhoto{Image: utils.Ptr("x")}))
	s.False(s.store.AddVehiclePhoto(s.ctx, constants.RoleThirdParty, entity.VehiclePhoto{}))
	s.Equal(saves, s.snaps.saves)
}

func (s *StoreSuite) TestSteps() {
	s.store.PrevStep(s.ctx)
	s.Equal(0, s.store.Step())

	s.store.NextStep(s.ctx)
	s.store.NextStep(s.ctx)
	s.Equal(2, s.store.Step())

	s.store.SetStep(s.ctx, 9)
	s.Equal(9, s.store.Step(), "upper bound belongs to the sequencer")

	s.store.SetStep(s.ctx, -3)
	s.Equal(0, s.store.Step())
	s.Equal(0, s.snaps.decoded().CurrentStep)
}

func (s *StoreSuite) TestRehydratesFromSnapshot() {
	doc := s.store.InitInspection(s.ctx, "CO", constants.AccidentRollover)
	s.store.UpdateVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{Plate: utils.Ptr("ABC 123")})
	s.store.NextStep(s.ctx)

	restored := s.newStore()
	snap := restored.Snapshot()
	s.Equal(doc.ID, snap.Inspection.ID)
	s.Equal(2, snap.CurrentStep)
	s.Equal("ABC 123", snap.Inspection.InsuredVehicle.Plate)
}

func (s *StoreSuite) TestCorruptSnapshotFallsBackToEmpty() {
	s.snaps.data = []byte(`{"inspection": [not json`)

	store := s.newStore()
	snap := store.Snapshot()
	s.Equal(0, snap.CurrentStep)
	s.Equal(constants.StatusDraft, snap.Inspection.Status)
	s.Nil(snap.Inspection.InsuredVehicle)
}

func (s *StoreSuite) TestLoadErrorFallsBackToEmpty() {
	s.snaps.loadErr = errors.New("disk unavailable")

	store := s.newStore()
	s.Equal(0, store.Step())
	s.Equal(constants.StatusDraft, store.Inspection().Status)
}

func (s *StoreSuite) TestSaveFailureKeepsMutation() {
	s.store.InitInspection(s.ctx, "PA", constants.AccidentFire)
	s.snaps.saveErr = errors.New("quota exceeded")

	s.True(s.store.UpdateVehicle(s.ctx, constants.RoleInsured, entity.VehiclePatch{Brand: utils.Ptr("Kia")}))
	s.Equal("Kia", s.store.Inspection().InsuredVehicle.Brand)
}

func (s *StoreSuite) TestResetInspection() {
	old := s.store.InitInspection(s.ctx, "PA", constants.AccidentFire)
	s.store.SetHasThirdParty(s.ctx, true)

	s.store.ResetInspection(s.ctx)
	snap := s.store.Snapshot()
	s.NotEqual(old.ID, snap.Inspection.ID)
	s.Equal(0, snap.CurrentStep)
	s.False(snap.Inspection.HasThirdParty)
	s.Nil(snap.Inspection.ThirdPartyPerson)
	s.Equal(snap.Inspection.ID, s.snaps.decoded().Inspection.ID)

	s.Equal(1, s.snaps.deletes)
	s.Equal([]string{"delete", "save"}, s.snaps.log[len(s.snaps.log)-2:], "old draft deleted before the fresh one is saved")
	s.Equal(constants.StatusDraft, s.snaps.decoded().Inspection.Status)
}

func (s *StoreSuite) TestSnapshotIsACopy() {
	s.store.InitInspection(s.ctx, "PA", constants.AccidentFire)

	snap := s.store.Snapshot()
	snap.Inspection.InsuredVehicle.Plate = "MUTATED"
	snap.Inspection.InsuredVehicle.Photos[0].Label = "MUTATED"

	fresh := s.store.Inspection()
	s.Empty(fresh.InsuredVehicle.Plate)
	s.NotEqual("MUTATED", fresh.InsuredVehicle.Photos[0].Label)
}

func (s *StoreSuite) TestSubscribe() {
	var got []Snapshot
	unsubscribe := s.store.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.store.InitInspection(s.ctx, "PA", constants.AccidentFire)
	s.store.NextStep(s.ctx)
	unsubscribe()
	s.store.NextStep(s.ctx)

	s.Require().Len(got, 2)
	s.Equal(1, got[0].CurrentStep)
	s.Equal(2, got[1].CurrentStep)
}

func (s *StoreSuite) TestConcurrentPhotoUpdatesCommute() {
	doc := s.store.InitInspection(s.ctx, "PA", constants.AccidentCollision)

	var wg sync.WaitGroup
	for _, photo := range doc.InsuredVehicle.Photos {
		wg.Add(1)
		go func(p entity.VehiclePhoto) {
			defer wg.Done()
			s.store.UpdateVehiclePhoto(s.ctx, constants.RoleInsured, p.ID, entity.PhotoPatch{Image: utils.Ptr("img-" + string(p.Slot))})
		}(photo)
	}
	wg.Wait()

	v := s.store.Inspection().InsuredVehicle
	s.Equal(12, v.CapturedPhotos())
	for _, p := range v.Photos {
		s.Equal("img-"+string(p.Slot), *p.Image)
	}
	s.Equal(12, s.snaps.decoded().Inspection.InsuredVehicle.CapturedPhotos())
}
