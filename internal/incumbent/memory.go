package incumbent

import (
	"context"
	"sync"
	"time"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

// MemoryStore implements an in-memory Store.
type MemoryStore struct {
	mu         sync.RWMutex
	incumbents []models.Incumbent
	regions    []models.Region
	cache      *SnapshotCache
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	m := MemoryStore{}
	m.cache = NewSnapshotCache(&m)
	return &m
}

// AddIncumbents adds the given incumbents and refreshes the snapshot.
func (m *MemoryStore) AddIncumbents(incs ...models.Incumbent) {
	m.mu.Lock()
	m.incumbents = append(m.incumbents, incs...)
	m.mu.Unlock()
	m.refresh()
}

// AddRegions adds the given regions and refreshes the snapshot.
func (m *MemoryStore) AddRegions(regions ...models.Region) {
	m.mu.Lock()
	m.regions = append(m.regions, regions...)
	m.mu.Unlock()
	m.refresh()
}

func (m *MemoryStore) refresh() {
	// LoadSnapshot on a MemoryStore never fails
	_ = m.cache.Refresh(context.Background())
}

// GetIncumbentsNear returns the incumbents of the given class within the
// area.
func (m *MemoryStore) GetIncumbentsNear(ctx context.Context, class models.IncumbentClass, area geo.Square, filter *Filter) ([]models.Incumbent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Incumbent
	for _, inc := range m.incumbents {
		if inc.Class == class && area.Contains(inc.Location) && filter.Match(inc) {
			out = append(out, inc)
		}
	}
	return out, nil
}

// GetCombinedIncumbents returns the incumbents of the given classes within
// the area.
func (m *MemoryStore) GetCombinedIncumbents(ctx context.Context, classes []models.IncumbentClass, area geo.Square) ([]models.Incumbent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := make(map[models.IncumbentClass]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Incumbent
	for _, inc := range m.incumbents {
		if _, ok := set[inc.Class]; ok && area.Contains(inc.Location) {
			out = append(out, inc)
		}
	}
	return out, nil
}

// LoadSnapshot builds a snapshot of the stored regions and LP-Aux
// registrations.
func (m *MemoryStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Regions:  append([]models.Region(nil), m.regions...),
		LoadedAt: time.Now(),
	}
	for _, inc := range m.incumbents {
		if inc.Class == models.LPAux {
			s.LPAux = append(s.LPAux, inc)
		}
	}
	return &s, nil
}

// Snapshot returns the current snapshot.
func (m *MemoryStore) Snapshot() *Snapshot {
	return m.cache.Current()
}
