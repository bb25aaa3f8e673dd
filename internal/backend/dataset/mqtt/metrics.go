package mqtt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dataset_mqtt_event_count",
		Help: "The number of received events by the MQTT dataset backend (per event type).",
	}, []string{"event"})

	mqttc = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_mqtt_connect_count",
		Help: "The number of times the MQTT dataset backend connected to the MQTT broker.",
	})

	mqttd = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dataset_mqtt_disconnect_count",
		Help: "The number of times the MQTT dataset backend disconnected from the MQTT broker.",
	})
)

func mqttEventCounter(e string) prometheus.Counter {
	return ec.With(prometheus.Labels{"event": e})
}

func mqttConnectCounter() prometheus.Counter {
	return mqttc
}

func mqttDisconnectCounter() prometheus.Counter {
	return mqttd
}
