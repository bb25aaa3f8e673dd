package cmd

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/contour"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/storage"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

var contourBatchSize int

var computeContoursCmd = &cobra.Command{
	Use:   "compute-contours",
	Short: "Compute and store the contours of the TV stations and translators without contour",
	RunE:  computeContours,
}

func init() {
	computeContoursCmd.Flags().IntVar(&contourBatchSize, "batch-size", 100, "number of incumbents per batch")
}

func computeContours(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setupStorage,
		setupTerrain,
	}
	for _, t := range tasks {
		if err := t(); err != nil {
			return err
		}
	}
	defer terrain.Close()

	store := storage.NewStore(storage.DB(), storage.RedisClient(), storage.CacheTTL())
	if err := store.Snapshots().Refresh(context.Background()); err != nil {
		return errors.Wrap(err, "load incumbent snapshot error")
	}

	rs, err := newRuleset(config.C, store, terrain.Get())
	if err != nil {
		return err
	}

	classes := []models.IncumbentClass{models.TVStation, models.Translator}
	failed := make(map[uuid.UUID]struct{})
	var computed int

	for {
		incs, err := store.GetIncumbentsWithoutContour(context.Background(), classes, contourBatchSize+len(failed))
		if err != nil {
			return errors.Wrap(err, "get incumbents without contour error")
		}

		var todo []models.Incumbent
		for _, inc := range incs {
			if _, ok := failed[inc.ID]; !ok {
				todo = append(todo, inc)
			}
		}
		if len(todo) == 0 {
			break
		}

		n, err := computeContourBatch(context.Background(), rs, store, todo, failed)
		if err != nil {
			return err
		}
		computed += n
	}

	log.WithFields(log.Fields{
		"computed": computed,
		"failed":   len(failed),
	}).Info("compute-contours: done")

	return nil
}

// computeContourBatch calculates and stores the contours of the given
// incumbents. Incumbents for which the calculation fails are added to failed.
func computeContourBatch(ctx context.Context, rs ruleset.Ruleset, store *storage.Store, incs []models.Incumbent, failed map[uuid.UUID]struct{}) (int, error) {
	var mu sync.Mutex
	var computed int

	limit := config.C.Terrain.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range incs {
		inc := incs[i]
		g.Go(func() error {
			c, err := rs.CalculateContour(ctx, inc)
			if err == nil {
				var b []byte
				b, err = contour.Encode(c)
				if err == nil {
					err = store.UpdateContour(ctx, inc.ID, b)
				}
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Cause(err) == ruleset.ErrNotSupported {
					return err
				}

				log.WithError(err).WithFields(log.Fields{
					"id":        inc.ID,
					"call_sign": inc.CallSign,
				}).Error("compute-contours: calculate contour error")
				failed[inc.ID] = struct{}{}
				return nil
			}

			computed++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return computed, errors.Wrap(err, "calculate contour error")
	}
	return computed, nil
}
