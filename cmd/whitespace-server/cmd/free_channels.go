package cmd

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/geo"
	"github.com/brocaar/whitespace-server/internal/models"
	"github.com/brocaar/whitespace-server/internal/storage"
	"github.com/brocaar/whitespace-server/internal/terrain"
)

var (
	freeChannelsDevice     models.Device
	freeChannelsDeviceType string
	freeChannelsRequest    string
	freeChannelsDeviceList bool
)

var freeChannelsCmd = &cobra.Command{
	Use:   "free-channels",
	Short: "Calculate the channel availability for the given device and print it as JSON",
	RunE:  freeChannels,
}

func init() {
	f := freeChannelsCmd.Flags()
	f.Float64Var(&freeChannelsDevice.Location.Latitude, "latitude", 0, "device latitude")
	f.Float64Var(&freeChannelsDevice.Location.Longitude, "longitude", 0, "device longitude")
	f.Float64Var(&freeChannelsDevice.AntennaHeight, "height", 10, "antenna height above ground level (m)")
	f.Float64Var(&freeChannelsDevice.LocationUncertainty, "uncertainty", 0, "location uncertainty (m)")
	f.IntVar(&freeChannelsDevice.EmissionClass, "emission-class", 1, "emission class (1 - 5)")
	f.StringVar(&freeChannelsDevice.ID, "id", "cli", "device id")
	f.StringVar(&freeChannelsDeviceType, "type", string(models.Fixed), "device type (FIXED, PERSONAL_PORTABLE, LPAUX_LICENSED, LPAUX_UNLICENSED, MASTER, SLAVE)")
	f.StringVar(&freeChannelsRequest, "request-type", string(models.Specific), "request type (SPECIFIC, GENERIC)")
	f.BoolVar(&freeChannelsDeviceList, "device-list", false, "print the constraining incumbents instead of the channel availability")
}

func freeChannels(cmd *cobra.Command, args []string) error {
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

	d := freeChannelsDevice
	d.Location = geo.NewLocation(d.Location.Latitude, d.Location.Longitude)
	d.Type = models.DeviceType(freeChannelsDeviceType)
	d.RequestType = models.RequestType(freeChannelsRequest)
	d.Time = time.Now()

	var out interface{}
	if freeChannelsDeviceList {
		out, err = rs.GetDeviceList(context.Background(), d)
	} else {
		out, err = rs.GetFreeChannels(context.Background(), d)
	}
	if err != nil {
		return errors.Wrap(err, "calculate error")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
