package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/logging"
	"github.com/brocaar/whitespace-server/internal/models"
)

// incumbentRow holds an incumbent as stored in the database.
type incumbentRow struct {
	ID                    uuid.UUID             `db:"id"`
	CreatedAt             time.Time             `db:"created_at"`
	UpdatedAt             time.Time             `db:"updated_at"`
	Class                 models.IncumbentClass `db:"class"`
	CallSign              string                `db:"call_sign"`
	Latitude              float64               `db:"latitude"`
	Longitude             float64               `db:"longitude"`
	Channel               int                   `db:"channel"`
	AntennaHeight         float64               `db:"antenna_height"`
	GroundElevation       float64               `db:"ground_elevation"`
	HAAT                  float64               `db:"haat"`
	ERP                   float64               `db:"erp"`
	Polarization          models.Polarization   `db:"polarization"`
	Pattern               []byte                `db:"pattern"`
	PatternRotation       int                   `db:"pattern_rotation"`
	Digital               bool                  `db:"digital"`
	ParentLatitude        *float64              `db:"parent_latitude"`
	ParentLongitude       *float64              `db:"parent_longitude"`
	Contour               []byte                `db:"contour"`
	ValidFrom             *time.Time            `db:"valid_from"`
	ValidTo               *time.Time            `db:"valid_to"`
	FrequencyMHz          float64               `db:"frequency_mhz"`
	WantedSignal          float64               `db:"wanted_signal"`
	InterferenceThreshold float64               `db:"interference_threshold"`
	ReceiverHeight        float64               `db:"receiver_height"`
}

func (r incumbentRow) incumbent() (models.Incumbent, error) {
	inc := models.Incumbent{
		ID:                    r.ID,
		Class:                 r.Class,
		CallSign:              r.CallSign,
		Location:              geo.NewLocation(r.Latitude, r.Longitude),
		Channel:               r.Channel,
		AntennaHeight:         r.AntennaHeight,
		GroundElevation:       r.GroundElevation,
		HAAT:                  r.HAAT,
		ERP:                   r.ERP,
		Polarization:          r.Polarization,
		PatternRotation:       r.PatternRotation,
		Digital:               r.Digital,
		Contour:               r.Contour,
		ValidFrom:             r.ValidFrom,
		ValidTo:               r.ValidTo,
		FrequencyMHz:          r.FrequencyMHz,
		WantedSignal:          r.WantedSignal,
		InterferenceThreshold: r.InterferenceThreshold,
		ReceiverHeight:        r.ReceiverHeight,
	}

	if len(r.Pattern) != 0 {
		var p models.AntennaPattern
		if err := json.Unmarshal(r.Pattern, &p); err != nil {
			return inc, errors.Wrap(err, "unmarshal antenna pattern error")
		}
		inc.Pattern = &p
	}

	if r.ParentLatitude != nil && r.ParentLongitude != nil {
		parent := geo.NewLocation(*r.ParentLatitude, *r.ParentLongitude)
		inc.Parent = &parent
	}

	return inc, nil
}

func incumbentRows(rows []incumbentRow) ([]models.Incumbent, error) {
	out := make([]models.Incumbent, 0, len(rows))
	for _, r := range rows {
		inc, err := r.incumbent()
		if err != nil {
			return nil, errors.Wrapf(err, "incumbent id: %s", r.ID)
		}
		out = append(out, inc)
	}
	return out, nil
}

// CreateIncumbent creates the given incumbent. When the id is not set, a
// random id is assigned.
func CreateIncumbent(ctx context.Context, db sqlx.ExecerContext, inc *models.Incumbent) error {
	if inc.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return errors.Wrap(err, "new uuid v4 error")
		}
		inc.ID = id
	}

	var pattern []byte
	if inc.Pattern != nil {
		b, err := json.Marshal(inc.Pattern)
		if err != nil {
			return errors.Wrap(err, "marshal antenna pattern error")
		}
		pattern = b
	}

	var parentLat, parentLon *float64
	if inc.Parent != nil {
		parentLat = &inc.Parent.Latitude
		parentLon = &inc.Parent.Longitude
	}

	now := time.Now()

	_, err := db.ExecContext(ctx, `
		insert into incumbent (
			id,
			created_at,
			updated_at,
			class,
			call_sign,
			latitude,
			longitude,
			channel,
			antenna_height,
			ground_elevation,
			haat,
			erp,
			polarization,
			pattern,
			pattern_rotation,
			digital,
			parent_latitude,
			parent_longitude,
			contour,
			valid_from,
			valid_to,
			frequency_mhz,
			wanted_signal,
			interference_threshold,
			receiver_height
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		inc.ID,
		now,
		now,
		inc.Class,
		inc.CallSign,
		inc.Location.Latitude,
		inc.Location.Longitude,
		inc.Channel,
		inc.AntennaHeight,
		inc.GroundElevation,
		inc.HAAT,
		inc.ERP,
		inc.Polarization,
		pattern,
		inc.PatternRotation,
		inc.Digital,
		parentLat,
		parentLon,
		inc.Contour,
		inc.ValidFrom,
		inc.ValidTo,
		inc.FrequencyMHz,
		inc.WantedSignal,
		inc.InterferenceThreshold,
		inc.ReceiverHeight,
	)
	if err != nil {
		return handlePSQLError(err, "insert error")
	}

	log.WithFields(log.Fields{
		"id":        inc.ID,
		"class":     inc.Class,
		"call_sign": inc.CallSign,
		"ctx_id":    ctx.Value(logging.ContextIDKey),
	}).Info("storage: incumbent created")

	return nil
}

// GetIncumbent returns the incumbent for the given id.
func GetIncumbent(ctx context.Context, db sqlx.QueryerContext, id uuid.UUID) (models.Incumbent, error) {
	var row incumbentRow
	err := sqlx.GetContext(ctx, db, &row, `
		select
			*
		from
			incumbent
		where
			id = $1`,
		id,
	)
	if err != nil {
		return models.Incumbent{}, handlePSQLError(err, "select error")
	}

	return row.incumbent()
}

// DeleteIncumbent deletes the incumbent for the given id.
func DeleteIncumbent(ctx context.Context, db sqlx.ExecerContext, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `
		delete from incumbent
		where
			id = $1`,
		id,
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
		"id":     id,
		"ctx_id": ctx.Value(logging.ContextIDKey),
	}).Info("storage: incumbent deleted")

	return nil
}

// GetIncumbentsInArea returns the incumbents of the given classes within
// the bounding box.
func GetIncumbentsInArea(ctx context.Context, db sqlx.QueryerContext, classes []models.IncumbentClass, area geo.Square) ([]models.Incumbent, error) {
	start := time.Now()

	var rows []incumbentRow
	err := sqlx.SelectContext(ctx, db, &rows, `
		select
			*
		from
			incumbent
		where
			class = any($1)
			and latitude between $2 and $3
			and longitude between $4 and $5`,
		pq.Array(classStrings(classes)),
		area.MinLatitude,
		area.MaxLatitude,
		area.MinLongitude,
		area.MaxLongitude,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	queryDuration("incumbents_in_area").Observe(time.Since(start).Seconds())
	return incumbentRows(rows)
}

// GetIncumbentsByClass returns all incumbents of the given class.
func GetIncumbentsByClass(ctx context.Context, db sqlx.QueryerContext, class models.IncumbentClass) ([]models.Incumbent, error) {
	var rows []incumbentRow
	err := sqlx.SelectContext(ctx, db, &rows, `
		select
			*
		from
			incumbent
		where
			class = $1
		order by
			call_sign`,
		class,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	return incumbentRows(rows)
}

// GetIncumbentsWithoutContour returns at most limit incumbents of the
// given classes without serialized contour.
func GetIncumbentsWithoutContour(ctx context.Context, db sqlx.QueryerContext, classes []models.IncumbentClass, limit int) ([]models.Incumbent, error) {
	var rows []incumbentRow
	err := sqlx.SelectContext(ctx, db, &rows, `
		select
			*
		from
			incumbent
		where
			class = any($1)
			and contour is null
		order by
			created_at
		limit $2`,
		pq.Array(classStrings(classes)),
		limit,
	)
	if err != nil {
		return nil, handlePSQLError(err, "select error")
	}

	return incumbentRows(rows)
}

// UpdateContour stores the serialized contour of the incumbent.
func UpdateContour(ctx context.Context, db sqlx.ExecerContext, id uuid.UUID, contour []byte) error {
	res, err := db.ExecContext(ctx, `
		update incumbent
		set
			contour = $2,
			updated_at = $3
		where
			id = $1`,
		id,
		contour,
		time.Now(),
	)
	if err != nil {
		return handlePSQLError(err, "update error")
	}

	ra, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "get rows affected error")
	}
	if ra == 0 {
		return ErrDoesNotExist
	}

	return nil
}

func classStrings(classes []models.IncumbentClass) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, string(c))
	}
	return out
}
