package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
)

// MemoryRepository keeps submissions in memory. It backs offline runs and tests.
type MemoryRepository struct {
	mu          sync.Mutex
	inspections map[uuid.UUID]submission.InspectionRecord
	references  map[uuid.UUID]string
	byRef       map[string]uuid.UUID
	photos      map[uuid.UUID]map[uuid.UUID]submission.PhotoRecord
	findings    map[uuid.UUID][]submission.FindingRecord
	consents    map[uuid.UUID]submission.ConsentRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		inspections: map[uuid.UUID]submission.InspectionRecord{},
		references:  map[uuid.UUID]string{},
		byRef:       map[string]uuid.UUID{},
		photos:      map[uuid.UUID]map[uuid.UUID]submission.PhotoRecord{},
		findings:    map[uuid.UUID][]submission.FindingRecord{},
		consents:    map[uuid.UUID]submission.ConsentRecord{},
	}
}

var _ submission.Persister = (*MemoryRepository)(nil)

func (m *MemoryRepository) CreateInspection(_ context.Context, rec submission.InspectionRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inspections[rec.ID] = rec
	if ref, ok := m.references[rec.ID]; ok {
		return ref, nil
	}
	ref := "INS-" + strings.ToUpper(strings.ReplaceAll(rec.ID.String(), "-", "")[:10])
	m.references[rec.ID] = ref
	m.byRef[ref] = rec.ID
	return ref, nil
}

func (m *MemoryRepository) CreatePhotos(_ context.Context, ref string, recs []submission.PhotoRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.lookup(ref)
	if err != nil {
		return err
	}
	if m.photos[id] == nil {
		m.photos[id] = map[uuid.UUID]submission.PhotoRecord{}
	}
	for _, p := range recs {
		m.photos[id][p.ID] = p
	}
	return nil
}

// CreateFindings replaces the findings of the inspection, mirroring the ordinal key in Postgres.
func (m *MemoryRepository) CreateFindings(_ context.Context, ref string, recs []submission.FindingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.lookup(ref)
	if err != nil {
		return err
	}
	m.findings[id] = append([]submission.FindingRecord(nil), recs...)
	return nil
}

func (m *MemoryRepository) CreateConsent(_ context.Context, ref string, rec submission.ConsentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.lookup(ref)
	if err != nil {
		return err
	}
	m.consents[id] = rec
	return nil
}

// Get returns everything stored under ref.
func (m *MemoryRepository) Get(ref string) (submission.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := m.lookup(ref)
	if err != nil {
		return submission.Payload{}, err
	}
	p := submission.Payload{
		Inspection: m.inspections[id],
		Findings:   append([]submission.FindingRecord(nil), m.findings[id]...),
	}
	for _, ph := range m.photos[id] {
		p.Photos = append(p.Photos, ph)
	}
	if c, ok := m.consents[id]; ok {
		p.Consent = &c
	}
	return p, nil
}

func (m *MemoryRepository) lookup(ref string) (uuid.UUID, error) {
	id, ok := m.byRef[ref]
	if !ok {
		return uuid.Nil, fmt.Errorf("reference %q: %w", ref, common.ErrNotFound)
	}
	return id, nil
}
