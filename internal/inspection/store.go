package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
)

// Snapshot is the durable unit: the document and the wizard step, always written together.
type Snapshot struct {
	Inspection  entity.Inspection `json:"inspection"`
	CurrentStep int               `json:"currentStep"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{Inspection: s.Inspection.Clone(), CurrentStep: s.CurrentStep}
}

// SnapshotStore is the keyed durable record. Load returns common.ErrNotFound when nothing was saved;
// Delete of an absent record is not an error.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// Clock returns the current time.
type Clock func() time.Time

// Store owns the live inspection and the current step.
// Mutations are serialized; each one is applied copy-on-write, stamped and persisted before it becomes visible.
type Store struct {
	mu   sync.Mutex
	doc  entity.Inspection
	step int
	subs map[int]func(Snapshot)
	next int

	clock       Clock
	snapshots   SnapshotStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	saveTimeout time.Duration
}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithSnapshotStore(ss SnapshotStore) Option {
	return func(s *Store) { s.snapshots = ss }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// NewStore builds a store and rehydrates it from the snapshot store when one is configured.
// Missing or unreadable snapshots fall back to an empty draft at step 0.
func NewStore(ctx context.Context, opts ...Option) *Store {
	s := &Store{
		subs:        map[int]func(Snapshot){},
		clock:       time.Now,
		logger:      slog.Default(),
		saveTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	s.doc = NewInspection(s.now())
	s.restore(ctx)
	return s
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func (s *Store) restore(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	data, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.metrics.IncSnapshot("load", "absent")
			s.logger.Info("store.restore.absent")
		} else {
			s.metrics.IncSnapshot("load", "failed")
			s.logger.Warn("store.restore.failed", "error", err)
		}
		return
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.metrics.IncSnapshot("load", "corrupt")
		s.logger.Warn("store.restore.corrupt", "error", err, "bytes", len(data))
		return
	}
	if snap.Inspection.ID == uuid.Nil || snap.CurrentStep < 0 {
		s.metrics.IncSnapshot("load", "corrupt")
		s.logger.Warn("store.restore.corrupt", "error", "missing inspection id or negative step")
		return
	}

	s.doc = snap.Inspection
	s.step = snap.CurrentStep
	s.metrics.IncSnapshot("load", "ok")
	s.logger.Info("store.restore.ok",
		"inspection_id", s.doc.ID,
		"status", s.doc.Status,
		"current_step", s.step)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Inspection: s.doc.Clone(), CurrentStep: s.step}
}

// Inspection returns a deep copy of the current document.
func (s *Store) Inspection() entity.Inspection {
	return s.Snapshot().Inspection
}

// Step returns the current wizard step.
func (s *Store) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Subscribe registers fn to receive a copy of the state after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// InitInspection replaces the document with a fresh in-progress inspection scaffolded
// with an empty insured person and vehicle, and moves to step 1.
func (s *Store) InitInspection(ctx context.Context, country string, accidentType constants.AccidentType) entity.Inspection {
	var created entity.Inspection
	s.commit(ctx, "init", func(_ entity.Inspection, _ int) (entity.Inspection, int, bool) {
		doc := NewInspection(s.now())
		doc.Country = country
		doc.AccidentType = accidentType
		doc.Status = constants.StatusInProgress
		doc.InsuredPerson = NewPerson(constants.RoleInsured)
		doc.InsuredVehicle = NewVehicle(constants.RoleInsured)
		created = doc.Clone()
		return doc, 1, true
	})
	return created
}

// UpdateInspection merges root-level fields. Returns false when the patch carried an invalid status transition.
func (s *Store) UpdateInspection(ctx context.Context, p entity.InspectionPatch) bool {
	return s.mutate(ctx, "update_inspection", func(doc entity.Inspection) (entity.Inspection, bool) {
		return ApplyInspection(doc, p)
	})
}

// UpdatePerson merges p into the person holding role.
func (s *Store) UpdatePerson(ctx context.Context, role constants.Role, p entity.PersonPatch) bool {
	return s.mutate(ctx, "update_person", func(doc entity.Inspection) (entity.Inspection, bool) {
		return ApplyPerson(doc, role, p)
	})
}

// UpdateVehicle merges p into the vehicle holding role.
func (s *Store) UpdateVehicle(ctx context.Context, role constants.Role, p entity.VehiclePatch) bool {
	return s.mutate(ctx, "update_vehicle", func(doc entity.Inspection) (entity.Inspection, bool) {
		return ApplyVehicle(doc, role, p)
	})
}

// MergePerson merges p into role's person when it exists. With FillEmpty the decision of which
// fields are still empty is taken on the current document, under the store lock.
func (s *Store) MergePerson(ctx context.Context, role constants.Role, p entity.PersonPatch, mode MergeMode) bool {
	return s.mutate(ctx, "merge_person", func(doc entity.Inspection) (entity.Inspection, bool) {
		return MergePerson(doc, role, p, mode)
	})
}

// MergeVehicle merges p into role's vehicle when it exists.
func (s *Store) MergeVehicle(ctx context.Context, role constants.Role, p entity.VehiclePatch, mode MergeMode) bool {
	return s.mutate(ctx, "merge_vehicle", func(doc entity.Inspection) (entity.Inspection, bool) {
		return MergeVehicle(doc, role, p, mode)
	})
}

// AddVehiclePhoto appends a photo to the vehicle holding role; no-op without that vehicle.
func (s *Store) AddVehiclePhoto(ctx context.Context, role constants.Role, photo entity.VehiclePhoto) bool {
	return s.mutate(ctx, "add_vehicle_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return AddVehiclePhoto(doc, role, photo)
	})
}

// UpdateVehiclePhoto merges p into the photo with id.
func (s *Store) UpdateVehiclePhoto(ctx context.Context, role constants.Role, id uuid.UUID, p entity.PhotoPatch) bool {
	return s.mutate(ctx, "update_vehicle_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return UpdateVehiclePhoto(doc, role, id, p)
	})
}

// UpdateScene merges p into the scene, creating it on first use.
func (s *Store) UpdateScene(ctx context.Context, p entity.ScenePatch) bool {
	return s.mutate(ctx, "update_scene", func(doc entity.Inspection) (entity.Inspection, bool) {
		return ApplyScene(doc, p)
	})
}

// AddScenePhoto appends a scene photo; no-op until the scene exists.
func (s *Store) AddScenePhoto(ctx context.Context, photo entity.VehiclePhoto) bool {
	return s.mutate(ctx, "add_scene_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return AddScenePhoto(doc, photo)
	})
}

func (s *Store) UpdateScenePhoto(ctx context.Context, id uuid.UUID, p entity.PhotoPatch) bool {
	return s.mutate(ctx, "update_scene_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return UpdateScenePhoto(doc, id, p)
	})
}

func (s *Store) RemoveScenePhoto(ctx context.Context, id uuid.UUID) bool {
	return s.mutate(ctx, "remove_scene_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return RemoveScenePhoto(doc, id)
	})
}

func (s *Store) AddDamagePhoto(ctx context.Context, photo entity.DamagePhoto) bool {
	return s.mutate(ctx, "add_damage_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return AddDamagePhoto(doc, photo)
	})
}

func (s *Store) RemoveDamagePhoto(ctx context.Context, id uuid.UUID) bool {
	return s.mutate(ctx, "remove_damage_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return RemoveDamagePhoto(doc, id)
	})
}

func (s *Store) UpdateDamagePhoto(ctx context.Context, id uuid.UUID, p entity.DamagePhotoPatch) bool {
	return s.mutate(ctx, "update_damage_photo", func(doc entity.Inspection) (entity.Inspection, bool) {
		return UpdateDamagePhoto(doc, id, p)
	})
}

// UpdateConsent merges p into the consent; the last write is authoritative.
func (s *Store) UpdateConsent(ctx context.Context, p entity.ConsentPatch) bool {
	return s.mutate(ctx, "update_consent", func(doc entity.Inspection) (entity.Inspection, bool) {
		return ApplyConsent(doc, p)
	})
}

// SetHasThirdParty toggles third-party presence. Turning it off discards third-party data.
func (s *Store) SetHasThirdParty(ctx context.Context, on bool) bool {
	return s.mutate(ctx, "set_has_third_party", func(doc entity.Inspection) (entity.Inspection, bool) {
		return SetHasThirdParty(doc, on)
	})
}

// SetStep moves to step n. Negative values clamp to 0; the upper bound belongs to the sequencer.
func (s *Store) SetStep(ctx context.Context, n int) {
	if n < 0 {
		n = 0
	}
	s.commit(ctx, "set_step", func(doc entity.Inspection, _ int) (entity.Inspection, int, bool) {
		return doc, n, true
	})
}

func (s *Store) NextStep(ctx context.Context) {
	s.commit(ctx, "next_step", func(doc entity.Inspection, step int) (entity.Inspection, int, bool) {
		return doc, step + 1, true
	})
}

func (s *Store) PrevStep(ctx context.Context) {
	s.commit(ctx, "prev_step", func(doc entity.Inspection, step int) (entity.Inspection, int, bool) {
		if step == 0 {
			return doc, 0, false
		}
		return doc, step - 1, true
	})
}

// ResetInspection discards everything and restores an empty draft at step 0.
// The durable record of the old draft is deleted before the empty one is saved.
func (s *Store) ResetInspection(ctx context.Context) {
	s.commit(ctx, "reset", func(old entity.Inspection, _ int) (entity.Inspection, int, bool) {
		s.discard(ctx, old.ID)
		return NewInspection(s.now()), 0, true
	})
}

// discard deletes the durable record; runs under the store lock. A failure is logged and
// the following save overwrites the record anyway.
func (s *Store) discard(ctx context.Context, id uuid.UUID) {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	if err := s.snapshots.Delete(ctx); err != nil {
		s.metrics.IncSnapshot("delete", "failed")
		s.logger.Warn("store.discard.failed", "inspection_id", id, "error", err)
		return
	}
	s.metrics.IncSnapshot("delete", "ok")
	s.logger.Debug("store.discard.ok", "inspection_id", id)
}

// mutate applies a document change and stamps UpdatedAt.
func (s *Store) mutate(ctx context.Context, op string, fn func(entity.Inspection) (entity.Inspection, bool)) bool {
	return s.commit(ctx, op, func(doc entity.Inspection, step int) (entity.Inspection, int, bool) {
		next, changed := fn(doc)
		if changed {
			next.UpdatedAt = s.now()
		}
		return next, step, changed
	})
}

func (s *Store) commit(ctx context.Context, op string, fn func(entity.Inspection, int) (entity.Inspection, int, bool)) bool {
	s.mu.Lock()
	doc, step, changed := fn(s.doc, s.step)
	if !changed {
		id := s.doc.ID
		s.mu.Unlock()
		s.logger.Debug("store.mutation.noop", "op", op, "inspection_id", id)
		return false
	}
	s.doc = doc
	s.step = step
	snap := Snapshot{Inspection: doc.Clone(), CurrentStep: step}
	s.persist(ctx, op, snap)
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	s.metrics.IncMutation(op)
	for _, notify := range subs {
		notify(snap.clone())
	}
	return true
}

// persist writes the snapshot while the store lock is held so durable order matches memory order.
// A failed write is logged and counted; the in-memory change stands.
func (s *Store) persist(ctx context.Context, op string, snap Snapshot) {
	if s.snapshots == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.metrics.IncSnapshot("save", "failed")
		s.logger.Error("store.persist.encode_failed", "op", op, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	start := time.Now()
	if err := s.snapshots.Save(ctx, data); err != nil {
		s.metrics.IncSnapshot("save", "failed")
		s.logger.Error("store.persist.failed",
			"op", op,
			"inspection_id", snap.Inspection.ID,
			"error", err)
		return
	}
	s.metrics.IncSnapshot("save", "ok")
	s.logger.Debug("store.persist.ok",
		"op", op,
		"inspection_id", snap.Inspection.ID,
		"current_step", snap.CurrentStep,
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds())
}
