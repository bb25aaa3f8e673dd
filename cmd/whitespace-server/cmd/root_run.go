package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/resolver"

	"github.com/brocaar/whitespace-server/internal/api"
	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/backend/dataset/amqp"
	"github.com/brocaar/whitespace-server/internal/backend/dataset/gcppubsub"
	"github.com/brocaar/whitespace-server/internal/backend/dataset/mqtt"
	"github.com/brocaar/whitespace-server/internal/channel"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/incumbent"
	"github.com/brocaar/whitespace-server/internal/monitoring"
	"github.com/brocaar/whitespace-server/internal/ruleset"
	"github.com/brocaar/whitespace-server/internal/ruleset/fcc"
	"github.com/brocaar/whitespace-server/internal/ruleset/ofcom"
	"github.com/brocaar/whitespace-server/internal/storage"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

var (
	incumbentStore *storage.Store
	cancelRefresh  context.CancelFunc
)

func run(cmd *cobra.Command, args []string) error {
	tasks := []func() error{
		setLogLevel,
		setSyslog,
		setGRPCResolver,
		printStartMessage,
		setupMonitoring,
		setupStorage,
		setupTerrain,
		setupIncumbentStore,
		setupRuleset,
		setupDatasetBackend,
		setupAPI,
	}

	for _, t := range tasks {
		if err := t(); err != nil {
			log.Fatal(err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	exitChan := make(chan struct{})
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	log.WithField("signal", <-sigChan).Info("signal received")
	go func() {
		log.Warning("stopping whitespace-server")
		if b := dataset.GetBackend(); b != nil {
			if err := b.Close(); err != nil {
				log.WithError(err).Error("close dataset backend error")
			}
		}
		cancelRefresh()
		terrain.Close()
		exitChan <- struct{}{}
	}()
	select {
	case <-exitChan:
	case s := <-sigChan:
		log.WithField("signal", s).Info("signal received, stopping immediately")
	}

	return nil
}

func setLogLevel() error {
	log.SetLevel(log.Level(uint8(config.C.General.LogLevel)))
	return nil
}

func setGRPCResolver() error {
	resolver.SetDefaultScheme(config.C.General.GRPCDefaultResolverScheme)
	return nil
}

func printStartMessage() error {
	log.WithFields(log.Fields{
		"version": version,
		"country": config.C.General.Country,
	}).Info("starting Whitespace Server")
	return nil
}

func setupMonitoring() error {
	if err := monitoring.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup monitoring error")
	}
	return nil
}

func setupStorage() error {
	if err := storage.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup storage error")
	}
	return nil
}

func setupTerrain() error {
	if err := terrain.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup terrain error")
	}
	return nil
}

func setupIncumbentStore() error {
	incumbentStore = storage.NewStore(storage.DB(), storage.RedisClient(), storage.CacheTTL())
	if err := incumbentStore.Snapshots().Refresh(context.Background()); err != nil {
		return errors.Wrap(err, "load incumbent snapshot error")
	}
	incumbent.Set(incumbentStore)

	var ctx context.Context
	ctx, cancelRefresh = context.WithCancel(context.Background())
	go incumbentStore.Snapshots().Run(ctx, config.C.Incumbent.SnapshotRefreshInterval)

	return nil
}

func newRuleset(c config.Config, store incumbent.Store, t *terrain.Engine) (ruleset.Ruleset, error) {
	plan, err := channel.ForCountry(c.General.Country)
	if err != nil {
		return nil, errors.Wrap(err, "channel plan error")
	}

	switch plan.Name() {
	case channel.US:
		return fcc.New(store, t, c), nil
	case channel.GB:
		return ofcom.New(store, t, c), nil
	default:
		return nil, fmt.Errorf("no ruleset for country: %s", plan.Name())
	}
}

func setupRuleset() error {
	rs, err := newRuleset(config.C, incumbent.Get(), terrain.Get())
	if err != nil {
		return errors.Wrap(err, "setup ruleset error")
	}

	log.WithField("ruleset", rs.Name()).Info("ruleset configured")
	ruleset.Set(rs)
	return nil
}

func setupDatasetBackend() error {
	var err error
	var b dataset.Backend

	switch config.C.Dataset.Backend.Type {
	case "":
		log.Warning("no dataset backend configured, cache invalidation relies on ttl and snapshot refresh interval")
		return nil
	case "mqtt":
		b, err = mqtt.NewBackend(config.C)
	case "amqp":
		b, err = amqp.NewBackend(config.C)
	case "gcp_pub_sub":
		b, err = gcppubsub.NewBackend(config.C)
	default:
		return fmt.Errorf("unexpected dataset backend type: %s", config.C.Dataset.Backend.Type)
	}

	if err != nil {
		return errors.Wrap(err, "dataset-backend setup failed")
	}

	dataset.SetBackend(b)
	go dataset.Handle(b, incumbentStore)

	return nil
}

func setupAPI() error {
	if err := api.Setup(config.C); err != nil {
		return errors.Wrap(err, "setup api error")
	}
	return nil
}
