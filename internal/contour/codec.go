package contour

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
)

// Encode serializes the contour points as [[lat, lon], ...].
func Encode(c models.Contour) ([]byte, error) {
	points := make([][2]float64, len(c.Points))
	for i, p := range c.Points {
		points[i] = [2]float64{p.Latitude, p.Longitude}
	}

	b, err := json.Marshal(points)
	if err != nil {
		return nil, errors.Wrap(err, "marshal contour error")
	}
	return b, nil
}

// Decode deserializes a contour encoded by Encode.
func Decode(center geo.Location, b []byte) (models.Contour, error) {
	var points [][2]float64
	if err := json.Unmarshal(b, &points); err != nil {
		return models.Contour{}, errors.Wrap(err, "unmarshal contour error")
	}
	if len(points) != 360 {
		return models.Contour{}, errors.Errorf("expected 360 contour points, got: %d", len(points))
	}

	out := models.Contour{Center: center}
	for i, p := range points {
		loc := geo.NewLocation(p[0], p[1])
		if !loc.Valid() {
			return models.Contour{}, errors.Errorf("invalid contour point at azimuth %d", i)
		}
		out.Points[i] = loc
	}
	return out, nil
}
