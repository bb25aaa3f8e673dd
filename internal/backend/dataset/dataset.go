// Package dataset handles the notifications published by the dataset
// synchronization process after it has loaded new regulatory data.
package dataset

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/logging"
)

// Notification is published after a dataset has been (re)loaded.
type Notification struct {
	// Dataset names the reloaded dataset (e.g. "tv_station" or "region").
	Dataset  string    `json:"dataset"`
	Country  string    `json:"country,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Backend is the interface of a notification backend.
type Backend interface {
	NotificationChan() chan Notification // channel containing the received notifications
	Close() error                        // close the backend
}

// Flusher invalidates the cached incumbent data.
type Flusher interface {
	Flush(ctx context.Context) error
}

var backend Backend

// SetBackend sets the given notification backend.
func SetBackend(b Backend) {
	backend = b
}

// GetBackend returns the notification backend.
func GetBackend() Backend {
	return backend
}

// Decode decodes and validates the given notification payload.
func Decode(b []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(b, &n); err != nil {
		return n, errors.Wrap(err, "unmarshal notification error")
	}
	if n.Dataset == "" {
		return n, errors.New("dataset must not be empty")
	}
	return n, nil
}

// Handle flushes the cached incumbent data for every received notification.
// It blocks until the notification channel is closed.
func Handle(b Backend, f Flusher) {
	for n := range b.NotificationChan() {
		notificationCounter(n.Dataset).Inc()

		ctx, err := logging.NewContext(context.Background())
		if err != nil {
			log.WithError(err).Error("dataset: new context error")
			ctx = context.Background()
		}

		log.WithFields(log.Fields{
			"dataset":   n.Dataset,
			"country":   n.Country,
			"loaded_at": n.LoadedAt,
			"ctx_id":    ctx.Value(logging.ContextIDKey),
		}).Info("dataset: notification received, flushing cache")

		if err := f.Flush(ctx); err != nil {
			flushErrorCounter().Inc()
			logging.FromContext(ctx).WithError(err).Error("dataset: flush error")
		}
	}
}
