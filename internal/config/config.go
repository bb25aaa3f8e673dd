package config

import (
	"time"
)

// Version defines the Whitespace Server version.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel                  int    `mapstructure:"log_level"`
		LogToSyslog               bool   `mapstructure:"log_to_syslog"`
		GRPCDefaultResolverScheme string `mapstructure:"grpc_default_resolver_scheme"`

		// Country selects the ruleset (us = FCC, gb = Ofcom).
		Country string `mapstructure:"country"`
	} `mapstructure:"general"`

	PostgreSQL struct {
		DSN                string `mapstructure:"dsn"`
		Automigrate        bool   `mapstructure:"automigrate"`
		MaxOpenConnections int    `mapstructure:"max_open_connections"`
		MaxIdleConnections int    `mapstructure:"max_idle_connections"`
	} `mapstructure:"postgresql"`

	Redis struct {
		URL        string        `mapstructure:"url"` // deprecated
		Servers    []string      `mapstructure:"servers"`
		Cluster    bool          `mapstructure:"cluster"`
		MasterName string        `mapstructure:"master_name"`
		PoolSize   int           `mapstructure:"pool_size"`
		Password   string        `mapstructure:"password"`
		Database   int           `mapstructure:"database"`
		TLSEnabled bool          `mapstructure:"tls_enabled"`
		CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`

	Incumbent struct {
		SnapshotRefreshInterval time.Duration `mapstructure:"snapshot_refresh_interval"`
	} `mapstructure:"incumbent"`

	Terrain Terrain `mapstructure:"terrain"`

	Contour Contour `mapstructure:"contour"`

	Protection Protection `mapstructure:"protection"`

	FCC FCC `mapstructure:"fcc"`

	Ofcom Ofcom `mapstructure:"ofcom"`

	API struct {
		Bind    string `mapstructure:"bind"`
		CACert  string `mapstructure:"ca_cert"`
		TLSCert string `mapstructure:"tls_cert"`
		TLSKey  string `mapstructure:"tls_key"`
	} `mapstructure:"api"`

	Dataset struct {
		Backend struct {
			Type string `mapstructure:"type"`

			MQTT struct {
				Server               string        `mapstructure:"server"`
				Username             string        `mapstructure:"username"`
				Password             string        `mapstructure:"password"`
				QOS                  uint8         `mapstructure:"qos"`
				CleanSession         bool          `mapstructure:"clean_session"`
				ClientID             string        `mapstructure:"client_id"`
				CACert               string        `mapstructure:"ca_cert"`
				TLSCert              string        `mapstructure:"tls_cert"`
				TLSKey               string        `mapstructure:"tls_key"`
				Topic                string        `mapstructure:"topic"`
				MaxReconnectInterval time.Duration `mapstructure:"max_reconnect_interval"`
			} `mapstructure:"mqtt"`

			AMQP struct {
				URL        string `mapstructure:"url"`
				QueueName  string `mapstructure:"queue_name"`
				RoutingKey string `mapstructure:"routing_key"`
			} `mapstructure:"amqp"`

			GCPPubSub struct {
				CredentialsFile   string        `mapstructure:"credentials_file"`
				ProjectID         string        `mapstructure:"project_id"`
				TopicName         string        `mapstructure:"topic_name"`
				RetentionDuration time.Duration `mapstructure:"retention_duration"`
			} `mapstructure:"gcp_pub_sub"`
		} `mapstructure:"backend"`
	} `mapstructure:"dataset"`

	Monitoring struct {
		Bind                         string `mapstructure:"bind"`
		PrometheusEndpoint           bool   `mapstructure:"prometheus_endpoint"`
		PrometheusAPITimingHistogram bool   `mapstructure:"prometheus_api_timing_histogram"`
		HealthcheckEndpoint          bool   `mapstructure:"healthcheck_endpoint"`
	} `mapstructure:"monitoring"`
}

// Terrain holds the elevation and clutter reader configuration.
type Terrain struct {
	// Reader is either "flat" or "plugin".
	Reader        string  `mapstructure:"reader"`
	Plugin        string  `mapstructure:"plugin"`
	FlatElevation float64 `mapstructure:"flat_elevation"`
	FlatClutter   int     `mapstructure:"flat_clutter"`

	// Concurrency limits the number of radials sampled at the same time.
	Concurrency int `mapstructure:"concurrency"`
}

// Thresholds holds a value per TV band.
type Thresholds struct {
	LowVHF  float64 `mapstructure:"low_vhf"`
	HighVHF float64 `mapstructure:"high_vhf"`
	UHF     float64 `mapstructure:"uhf"`
}

// Contour holds the contour engine configuration.
type Contour struct {
	DigitalThresholds    Thresholds `mapstructure:"digital_thresholds"`
	AnalogThresholds     Thresholds `mapstructure:"analog_thresholds"`
	TranslatorThresholds Thresholds `mapstructure:"translator_thresholds"`

	// DiffractionSlope is the loss (dB/km) added beyond the radio horizon.
	DiffractionSlope Thresholds `mapstructure:"diffraction_slope"`

	ReceiveHeight float64 `mapstructure:"receive_height"`
	MaxDistance   float64 `mapstructure:"max_distance"`
}

// Separation holds a co- and adjacent-channel distance in km.
type Separation struct {
	CoChannel       float64 `mapstructure:"co_channel"`
	AdjacentChannel float64 `mapstructure:"adjacent_channel"`
}

// HAATSeparation holds the separation for fixed devices up to MaxHAAT.
type HAATSeparation struct {
	MaxHAAT         float64 `mapstructure:"max_haat"`
	CoChannel       float64 `mapstructure:"co_channel"`
	AdjacentChannel float64 `mapstructure:"adjacent_channel"`
}

// Protection holds the protection pipeline configuration. All distances
// are in km.
type Protection struct {
	// LegacyEarlyReturn stops the T-band and translator filters at the first
	// candidate that is not within protection distance. Off by default; when
	// enabled, a closer record can hide a farther blocking one.
	LegacyEarlyReturn bool `mapstructure:"legacy_early_return"`

	TVStation struct {
		SearchRadius     float64          `mapstructure:"search_radius"`
		Fixed            []HAATSeparation `mapstructure:"fixed"`
		PersonalPortable Separation       `mapstructure:"personal_portable"`
		LPAux            Separation       `mapstructure:"lpaux"`
	} `mapstructure:"tv_station"`

	Translator struct {
		SearchRadius float64 `mapstructure:"search_radius"`
	} `mapstructure:"translator"`

	LandMobile struct {
		SearchRadius float64    `mapstructure:"search_radius"`
		Separation   Separation `mapstructure:"separation"`
	} `mapstructure:"land_mobile"`

	TBand struct {
		SearchRadius float64    `mapstructure:"search_radius"`
		Separation   Separation `mapstructure:"separation"`
	} `mapstructure:"t_band"`

	Keyhole struct {
		SearchRadius float64    `mapstructure:"search_radius"`
		ArcWidth     float64    `mapstructure:"arc_width"`
		Inner        Separation `mapstructure:"inner"`
		Outer        Separation `mapstructure:"outer"`
	} `mapstructure:"keyhole"`

	LPAux struct {
		SearchRadius     float64 `mapstructure:"search_radius"`
		Fixed            float64 `mapstructure:"fixed"`
		PersonalPortable float64 `mapstructure:"personal_portable"`
	} `mapstructure:"lpaux"`
}

// FCC holds the FCC ruleset configuration.
type FCC struct {
	FixedMaxPower             float64 `mapstructure:"fixed_max_power"`
	PersonalPortableMaxPower  float64 `mapstructure:"personal_portable_max_power"`
	ReducedMaxPower           float64 `mapstructure:"reduced_max_power"`
	LPAuxVHFMaxPower          float64 `mapstructure:"lpaux_vhf_max_power"`
	LPAuxUHFMaxPower          float64 `mapstructure:"lpaux_uhf_max_power"`
	ReserveMicrophoneChannels bool    `mapstructure:"reserve_microphone_channels"`
}

// ProtectionRatios holds the DTT protection ratios (dB) by channel offset.
type ProtectionRatios struct {
	CoChannel    float64 `mapstructure:"co_channel"`
	Adjacent1    float64 `mapstructure:"adjacent_1"`
	Adjacent2    float64 `mapstructure:"adjacent_2"`
	Adjacent3    float64 `mapstructure:"adjacent_3"`
	MaxOffset    int     `mapstructure:"max_offset"`
	Beyond       float64 `mapstructure:"beyond"`
	PMSEAdjacent float64 `mapstructure:"pmse_adjacent"`
	PMSEBeyond   float64 `mapstructure:"pmse_beyond"`
}

// Ofcom holds the Ofcom ruleset configuration. Radii are in km, pixel sizes
// and heights in m, powers in dBm (PSD per 100 kHz).
type Ofcom struct {
	SearchRadius       float64          `mapstructure:"search_radius"`
	PixelSize          float64          `mapstructure:"pixel_size"`
	FinePixelSize      float64          `mapstructure:"fine_pixel_size"`
	FineRadius         float64          `mapstructure:"fine_radius"`
	MaxEIRP            float64          `mapstructure:"max_eirp"`
	MinPSD             float64          `mapstructure:"min_psd"`
	Margin             float64          `mapstructure:"margin"`
	DTTReceiverHeight  float64          `mapstructure:"dtt_receiver_height"`
	PMSEReceiverHeight float64          `mapstructure:"pmse_receiver_height"`
	SlaveHeight        float64          `mapstructure:"slave_height"`
	SlaveSensitivity   float64          `mapstructure:"slave_sensitivity"`
	MaxCoverageRadius  float64          `mapstructure:"max_coverage_radius"`
	ClassPenalty       []float64        `mapstructure:"class_penalty"`
	ProtectionRatios   ProtectionRatios `mapstructure:"protection_ratios"`
}

// C holds the global configuration.
var C Config

// Get returns the configuration.
func Get() Config {
	return C
}

// Set sets the configuration.
func Set(c Config) {
	C = c
}
