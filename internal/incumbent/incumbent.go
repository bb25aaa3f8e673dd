// Package incumbent defines the incumbent store used by the region
// calculations, together with the immutable region snapshot.
package incumbent

import (
	"context"
	"sort"
	"time"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

// Filter holds optional column filters for GetIncumbentsNear.
type Filter struct {
	// Channels limits the result to the given channels.
	Channels []int

	// ActiveAt limits the result to records of which the validity window
	// includes the given time.
	ActiveAt *time.Time
}

// Match returns true when the incumbent passes the filter.
func (f *Filter) Match(inc models.Incumbent) bool {
	if f == nil {
		return true
	}

	if len(f.Channels) != 0 {
		found := false
		for _, ch := range f.Channels {
			if ch == inc.Channel {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.ActiveAt != nil && !inc.ActiveAt(*f.ActiveAt) {
		return false
	}

	return true
}

// Store defines the incumbent store.
type Store interface {
	// GetIncumbentsNear returns the incumbents of the given class within
	// the area.
	GetIncumbentsNear(ctx context.Context, class models.IncumbentClass, area geo.Square, filter *Filter) ([]models.Incumbent, error)

	// GetCombinedIncumbents returns the incumbents of all given classes
	// within the area using a single query.
	GetCombinedIncumbents(ctx context.Context, classes []models.IncumbentClass, area geo.Square) ([]models.Incumbent, error)

	// Snapshot returns the current region snapshot.
	Snapshot() *Snapshot
}

// SnapshotLoader loads a new region snapshot.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// SortByDistance sorts the incumbents by distance to loc, nearest first.
func SortByDistance(incs []models.Incumbent, loc geo.Location) {
	dist := make(map[int]float64, len(incs))
	idx := make([]int, len(incs))
	for i := range incs {
		idx[i] = i
		dist[i] = geo.DistanceBetween(loc, incs[i].Location).Meters()
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] < dist[idx[b]]
	})

	sorted := make([]models.Incumbent, len(incs))
	for i, j := range idx {
		sorted[i] = incs[j]
	}
	copy(incs, sorted)
}

var store Store

// Set sets the incumbent store.
func Set(s Store) {
	store = s
}

// Get returns the incumbent store.
func Get() Store {
	return store
}
