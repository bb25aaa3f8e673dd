package terrain

import (
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/config"
	terrainreader "github.com/brocaar/whitespace-server/terrain"
)

var (
	engine       *Engine
	pluginClient *plugin.Client
)

// FlatReader implements a reader returning a constant elevation and clutter
// class.
type FlatReader struct {
	ElevationValue float64
	ClutterClass   int
}

// Name returns the reader name.
func (r *FlatReader) Name() (string, error) {
	return "flat", nil
}

// Elevation returns the configured elevation.
func (r *FlatReader) Elevation(terrainreader.ElevationRequest) (float64, error) {
	return r.ElevationValue, nil
}

// Clutter returns the configured clutter class.
func (r *FlatReader) Clutter(terrainreader.ClutterRequest) (int, error) {
	return r.ClutterClass, nil
}

// Setup configures the terrain engine.
func Setup(c config.Config) error {
	var reader terrainreader.Reader

	switch c.Terrain.Reader {
	case "", "flat":
		reader = &FlatReader{
			ElevationValue: c.Terrain.FlatElevation,
			ClutterClass:   c.Terrain.FlatClutter,
		}
	case "plugin":
		r, client, err := loadPlugin(c.Terrain.Plugin)
		if err != nil {
			return errors.Wrap(err, "load terrain plugin error")
		}
		reader = r
		pluginClient = client
	default:
		return errors.Errorf("terrain: unknown reader type: %s", c.Terrain.Reader)
	}

	name, err := reader.Name()
	if err != nil {
		return errors.Wrap(err, "get reader name error")
	}

	log.WithFields(log.Fields{
		"reader":      name,
		"concurrency": c.Terrain.Concurrency,
	}).Info("terrain: terrain reader configured")

	engine = NewEngine(reader, c.Terrain.Concurrency)
	return nil
}

// Get returns the configured engine.
func Get() *Engine {
	return engine
}

// Set sets the engine.
func Set(e *Engine) {
	engine = e
}

// Close stops the terrain plugin, if any.
func Close() {
	if pluginClient != nil {
		pluginClient.Kill()
		pluginClient = nil
	}
}

func loadPlugin(path string) (terrainreader.Reader, *plugin.Client, error) {
	if path == "" {
		return nil, nil, errors.New("terrain.plugin must be set")
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "terrain",
		Output: log.StandardLogger().Writer(),
		Level:  hclog.Trace,
	})

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: terrainreader.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			"reader": &terrainreader.ReaderPlugin{},
		},
		Cmd:    exec.Command(path),
		Logger: logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, errors.Wrap(err, "get plugin client error")
	}

	raw, err := rpcClient.Dispense("reader")
	if err != nil {
		client.Kill()
		return nil, nil, errors.Wrap(err, "dispense plugin error")
	}

	reader, ok := raw.(terrainreader.Reader)
	if !ok {
		client.Kill()
		return nil, nil, errors.Errorf("expected terrain.Reader, got: %T", raw)
	}

	log.WithField("path", path).Info("terrain: terrain plugin loaded")
	return reader, client, nil
}
