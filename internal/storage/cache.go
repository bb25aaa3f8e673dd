package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

const (
	areaCacheKeyTempl      = "ws:area:%d:%s" // generation | query hash
	areaCacheGenerationKey = "ws:area:generation"
)

// areaQueryHash returns the hash identifying an area query. The order of
// the classes does not matter.
func areaQueryHash(classes []models.IncumbentClass, area geo.Square) string {
	sorted := classStrings(classes)
	sort.Strings(sorted)

	h := sha1.New()
	fmt.Fprintf(h, "%v|%.6f|%.6f|%.6f|%.6f", sorted, area.MinLatitude, area.MaxLatitude, area.MinLongitude, area.MaxLongitude)
	return hex.EncodeToString(h.Sum(nil))
}

func areaCacheGeneration(ctx context.Context, rc redis.UniversalClient) (int64, error) {
	gen, err := rc.Get(ctx, areaCacheGenerationKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get cache generation error")
	}
	return gen, nil
}

// GetAreaCache returns the cached result of an area query.
func GetAreaCache(ctx context.Context, rc redis.UniversalClient, classes []models.IncumbentClass, area geo.Square) ([]models.Incumbent, error) {
	gen, err := areaCacheGeneration(ctx, rc)
	if err != nil {
		return nil, err
	}

	key := GetRedisKey(areaCacheKeyTempl, gen, areaQueryHash(classes, area))
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrDoesNotExist
		}
		return nil, errors.Wrap(err, "get error")
	}

	var out []models.Incumbent
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal error")
	}
	return out, nil
}

// CreateAreaCache caches the result of an area query.
func CreateAreaCache(ctx context.Context, rc redis.UniversalClient, ttl time.Duration, classes []models.IncumbentClass, area geo.Square, incs []models.Incumbent) error {
	gen, err := areaCacheGeneration(ctx, rc)
	if err != nil {
		return err
	}

	b, err := json.Marshal(incs)
	if err != nil {
		return errors.Wrap(err, "marshal error")
	}

	key := GetRedisKey(areaCacheKeyTempl, gen, areaQueryHash(classes, area))
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		return errors.Wrap(err, "set error")
	}
	return nil
}

// FlushAreaCache invalidates all cached area queries by moving to a new
// cache generation. Old entries expire by their TTL.
func FlushAreaCache(ctx context.Context, rc redis.UniversalClient) error {
	if err := rc.Incr(ctx, areaCacheGenerationKey).Err(); err != nil {
		return errors.Wrap(err, "incr cache generation error")
	}
	return nil
}
