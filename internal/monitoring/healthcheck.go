package monitoring

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/storage"
)

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

func defaultHealthChecks() []healthCheck {
	return []healthCheck{
		{"redis", func(ctx context.Context) error {
			if storage.RedisClient() == nil {
				return errors.New("not configured")
			}
			return storage.RedisClient().Ping(ctx).Err()
		}},
		{"postgresql", func(ctx context.Context) error {
			if storage.DB() == nil {
				return errors.New("not configured")
			}
			return storage.DB().PingContext(ctx)
		}},
		{"ruleset", func(ctx context.Context) error {
			if ruleset.Get() == nil {
				return errors.New("no active ruleset")
			}
			return nil
		}},
	}
}

func healthCheckHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range checks {
			if err := c.check(r.Context()); err != nil {
				log.WithError(err).WithField("check", c.name).Error("monitoring: healthcheck failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(errors.Wrapf(err, "%s error", c.name).Error()))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
