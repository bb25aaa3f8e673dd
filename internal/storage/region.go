package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/logging"
	"github.com/brocaar/whitespace-server/internal/models"
)

type regionRow struct {
	Name            string            `db:"name"`
	Kind            models.RegionKind `db:"kind"`
	CreatedAt       time.Time         `db:"created_at"`
	Polygon         []byte            `db:"polygon"`
	CenterLatitude  *float64          `db:"center_latitude"`
	CenterLongitude *float64          `db:"center_longitude"`
	RadiusKM        float64           `db:"radius_km"`
	Channels        pq.Int64Array     `db:"channels"`
	DeviceTypes     pq.StringArray    `db:"device_types"`
}

func (r regionRow) region() (models.Region, error) {
	out := models.Region{
		Name:   r.Name,
		Kind:   r.Kind,
		Radius: geo.Kilometers(r.RadiusKM),
	}

	if err := json.Unmarshal(r.Polygon, &out.Polygon); err != nil {
		return out, errors.Wrap(err, "unmarshal polygon error")
	}

	if r.CenterLatitude != nil && r.CenterLongitude != nil {
		c := geo.NewLocation(*r.CenterLatitude, *r.CenterLongitude)
		out.Center = &c
	}

	for _, ch := range r.Channels {
		out.Channels = append(out.Channels, int(ch))
	}
	for _, t := range r.DeviceTypes {
		out.DeviceTypes = append(out.DeviceTypes, models.DeviceType(t))
	}

	return out, nil
}

// CreateRegion creates the given region. The kind and name must be unique.
func CreateRegion(ctx context.Context, db sqlx.ExecerContext, r *models.Region) error {
	polygon := r.Polygon
	if polygon == nil {
		polygon = geo.Polygon{}
	}
	b, err := json.Marshal(polygon)
	if err != nil {
		return errors.Wrap(err, "marshal polygon error")
	}

	var centerLat, centerLon *float64
	if r.Center != nil {
		centerLat = &r.Center.Latitude
		centerLon = &r.Center.Longitude
	}

	channels := make(pq.Int64Array, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, int64(ch))
	}
	deviceTypes := make(pq.StringArray, 0, len(r.DeviceTypes))
	for _, t := range r.DeviceTypes {
		deviceTypes = append(deviceTypes, string(t))
	}

	_, err = db.ExecContext(ctx, `
		insert into region (
			name,
			kind,
			created_at,
			polygon,
			center_latitude,
			center_longitude,
			radius_km,
			channels,
			device_types
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.Name,
		r.Kind,
		time.Now(),
		b,
		centerLat,
		centerLon,
		r.Radius.Kilometers(),
		channels,
		deviceTypes,
	)
	if err != nil {
		return handlePSQLError(err, "insert error")
	}

	log.WithFields(log.Fields{
		"name":   r.Name,
		"kind":   r.Kind,
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Info("storage: region created")

	return nil
}

// GetRegions returns all regions.
func GetRegions(ctx context.Context, db sqlx.QueryerContext) ([]models.Region, error) {
	var rows []regionRow
	err := sqlx.SelectContext(ctx, db, &rows, `
		select
			*
		from
			region
		order by
			kind,
			name`,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	out := make([]models.Region, 0, len(rows))
	for _, row := range rows {
		r, err := row.region()
		if err != nil {
			return nil, errors.Wrapf(err, "region: %s", row.Name)
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteRegion deletes the region matching the given kind and name.
func DeleteRegion(ctx context.Context, db sqlx.ExecerContext, kind models.RegionKind, name string) error {
	res, err := db.ExecContext(ctx, `
		delete from region
		where
			kind = $1
			and name = $2`,
		kind,
		name,
	)
	if err != nil {
		return handlePSQLError(err, "delete error")
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "get rows affected error")
	}
	if ra == 0 {
		return ErrDoesNotExist
	}

	log.WithFields(log.Fields{
		"name":   name,
		"kind":   kind,
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Info("storage: region deleted")

	return nil
}
