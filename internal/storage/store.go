package storage

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/logging"
	"github.com/brocaar/whitespace-server/internal/models"
)

// Store implements incumbent.Store on top of PostgreSQL, with area queries
// cached in Redis. Writes through the Store invalidate the cache.
type Store struct {
	db        *sqlx.DB
	redis     redis.UniversalClient
	ttl       time.Duration
	snapshots *incumbent.SnapshotCache
}

// NewStore creates a new Store. A nil Redis client or zero TTL disables
// the area cache.
func NewStore(db *sqlx.DB, rc redis.UniversalClient, ttl time.Duration) *Store {
	s := Store{
		db:    db,
		redis: rc,
		ttl:   ttl,
	}
	s.snapshots = incumbent.NewSnapshotCache(&s)
	return &s
}

func (s *Store) cacheEnabled() bool {
	return s.redis != nil && s.ttl > 0
}

// GetIncumbentsNear returns the incumbents of the given class within the
// area, matching the filter.
func (s *Store) GetIncumbentsNear(ctx context.Context, class models.IncumbentClass, area geo.Square, filter *incumbent.Filter) ([]models.Incumbent, error) {
	incs, err := s.GetCombinedIncumbents(ctx, []models.IncumbentClass{class}, area)
	if err != nil {
		return nil, err
	}

	out := incs[:0]
	for _, inc := range incs {
		if filter.Match(inc) {
			out = append(out, inc)
		}
	}
	return out, nil
}

// GetCombinedIncumbents returns the incumbents of all given classes within
// the area. Results are served from cache when available.
func (s *Store) GetCombinedIncumbents(ctx context.Context, classes []models.IncumbentClass, area geo.Square) ([]models.Incumbent, error) {
	if s.cacheEnabled() {
		incs, err := GetAreaCache(ctx, s.redis, classes, area)
		if err == nil {
			areaCache("hit").Inc()
			return incs, nil
		}

		if err != ErrDoesNotExist {
			areaCache("error").Inc()
			log.WithError(err).WithField("ctx_id", ctx.Value(logging.ContextIDKey)).Error("storage: get area cache error")
			// fall back onto the database
		} else {
			areaCache("miss").Inc()
		}
	}

	incs, err := GetIncumbentsInArea(ctx, s.db, classes, area)
	if err != nil {
		return nil, errors.Wrap(err, "get incumbents in area error")
	}

	if s.cacheEnabled() {
		if err := CreateAreaCache(ctx, s.redis, s.ttl, classes, area, incs); err != nil {
			log.WithError(err).WithField("ctx_id", ctx.Value(logging.ContextIDKey)).Error("storage: create area cache error")
		}
	}

	return incs, nil
}

// LoadSnapshot loads the regions and LP-Aux registrations.
func (s *Store) LoadSnapshot(ctx context.Context) (*incumbent.Snapshot, error) {
	regions, err := GetRegions(ctx, s.db)
	if err != nil {
		return nil, errors.Wrap(err, "get regions error")
	}

	lpaux, err := GetIncumbentsByClass(ctx, s.db, models.LPAux)
	if err != nil {
		return nil, errors.Wrap(err, "get lpaux registrations error")
	}

	return &incumbent.Snapshot{
		Regions:  regions,
		LPAux:    lpaux,
		LoadedAt: time.Now(),
	}, nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *incumbent.Snapshot {
	return s.snapshots.Current()
}

// Snapshots returns the snapshot cache.
func (s *Store) Snapshots() *incumbent.SnapshotCache {
	return s.snapshots
}

// Flush invalidates the area cache and reloads the snapshot.
func (s *Store) Flush(ctx context.Context) error {
	if s.redis != nil {
		if err := FlushAreaCache(ctx, s.redis); err != nil {
			return errors.Wrap(err, "flush area cache error")
		}
	}

	return s.snapshots.Refresh(ctx)
}

// CreateIncumbent creates the incumbent.
func (s *Store) CreateIncumbent(ctx context.Context, inc *models.Incumbent) error {
	if err := CreateIncumbent(ctx, s.db, inc); err != nil {
		return err
	}
	return s.flushAfterWrite(ctx, inc.Class)
}

// DeleteIncumbent deletes the incumbent.
func (s *Store) DeleteIncumbent(ctx context.Context, id uuid.UUID) error {
	inc, err := GetIncumbent(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := DeleteIncumbent(ctx, s.db, id); err != nil {
		return err
	}
	return s.flushAfterWrite(ctx, inc.Class)
}

// UpdateContour stores the serialized contour of the incumbent.
func (s *Store) UpdateContour(ctx context.Context, id uuid.UUID, contour []byte) error {
	if err := UpdateContour(ctx, s.db, id, contour); err != nil {
		return err
	}
	if s.redis != nil {
		return FlushAreaCache(ctx, s.redis)
	}
	return nil
}

// GetIncumbentsWithoutContour returns at most limit incumbents of the
// given classes without serialized contour.
func (s *Store) GetIncumbentsWithoutContour(ctx context.Context, classes []models.IncumbentClass, limit int) ([]models.Incumbent, error) {
	return GetIncumbentsWithoutContour(ctx, s.db, classes, limit)
}

// CreateRegion creates the region and reloads the snapshot.
func (s *Store) CreateRegion(ctx context.Context, r *models.Region) error {
	if err := CreateRegion(ctx, s.db, r); err != nil {
		return err
	}
	return s.snapshots.Refresh(ctx)
}

// DeleteRegion deletes the region and reloads the snapshot.
func (s *Store) DeleteRegion(ctx context.Context, kind models.RegionKind, name string) error {
	if err := DeleteRegion(ctx, s.db, kind, name); err != nil {
		return err
	}
	return s.snapshots.Refresh(ctx)
}

// flushAfterWrite invalidates the area cache and, for snapshot classes,
// reloads the snapshot.
func (s *Store) flushAfterWrite(ctx context.Context, class models.IncumbentClass) error {
	if s.redis != nil {
		if err := FlushAreaCache(ctx, s.redis); err != nil {
			return errors.Wrap(err, "flush area cache error")
		}
	}

	if class == models.LPAux {
		return s.snapshots.Refresh(ctx)
	}
	return nil
}
