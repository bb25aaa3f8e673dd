// Package mqtt implements a dataset notification backend using MQTT.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/config"
)

// Backend implements a MQTT subscriber for dataset notifications.
type Backend struct {
	wg sync.WaitGroup

	conn             paho.Client
	topic            string
	qos              uint8
	notificationChan chan dataset.Notification
}

// NewBackend creates a new Backend and connects to the MQTT broker.
func NewBackend(c config.Config) (dataset.Backend, error) {
	conf := c.Dataset.Backend.MQTT

	b := Backend{
		topic:            conf.Topic,
		qos:              conf.QOS,
		notificationChan: make(chan dataset.Notification),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	opts.SetClientID(conf.ClientID)
	opts.SetOnConnectHandler(b.onConnected)
	opts.SetConnectionLostHandler(b.onConnectionLost)
	if conf.MaxReconnectInterval != 0 {
		opts.SetMaxReconnectInterval(conf.MaxReconnectInterval)
	}

	tlsconfig, err := newTLSConfig(conf.CACert, conf.TLSCert, conf.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "dataset/mqtt: load tls configuration error")
	}
	if tlsconfig != nil {
		opts.SetTLSConfig(tlsconfig)
	}

	log.WithField("server", conf.Server).Info("dataset/mqtt: connecting to mqtt broker")
	b.conn = paho.NewClient(opts)
	for {
		if token := b.conn.Connect(); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Error("dataset/mqtt: connecting to mqtt broker failed, will retry in 2s")
			time.Sleep(2 * time.Second)
		} else {
			break
		}
	}

	return &b, nil
}

// NotificationChan returns the notification channel.
func (b *Backend) NotificationChan() chan dataset.Notification {
	return b.notificationChan
}

// Close unsubscribes, waits for the pending notifications to be handled
// and closes the notification channel.
func (b *Backend) Close() error {
	log.Info("dataset/mqtt: closing backend")

	log.WithField("topic", b.topic).Info("dataset/mqtt: unsubscribing from notification topic")
	if token := b.conn.Unsubscribe(b.topic); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "dataset/mqtt: unsubscribe from %s error", b.topic)
	}

	b.wg.Wait()
	b.conn.Disconnect(250)
	close(b.notificationChan)
	return nil
}

func (b *Backend) notificationHandler(c paho.Client, msg paho.Message) {
	b.wg.Add(1)
	defer b.wg.Done()

	n, err := dataset.Decode(msg.Payload())
	if err != nil {
		mqttEventCounter("invalid").Inc()
		log.WithFields(log.Fields{
			"topic":       msg.Topic(),
			"data_base64": base64.StdEncoding.EncodeToString(msg.Payload()),
		}).WithError(err).Error("dataset/mqtt: decode notification error")
		return
	}

	mqttEventCounter("notification").Inc()
	log.WithFields(log.Fields{
		"topic":   msg.Topic(),
		"dataset": n.Dataset,
	}).Info("dataset/mqtt: notification received")

	b.notificationChan <- n
}

func (b *Backend) onConnected(c paho.Client) {
	mqttConnectCounter().Inc()
	log.Info("dataset/mqtt: connected to mqtt broker")

	for {
		log.WithFields(log.Fields{
			"topic": b.topic,
			"qos":   b.qos,
		}).Info("dataset/mqtt: subscribing to notification topic")
		if token := c.Subscribe(b.topic, b.qos, b.notificationHandler); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).WithField("topic", b.topic).Error("dataset/mqtt: subscribe error")
			time.Sleep(time.Second)
			continue
		}
		break
	}
}

func (b *Backend) onConnectionLost(c paho.Client, reason error) {
	mqttDisconnectCounter().Inc()
	log.WithError(reason).Error("dataset/mqtt: mqtt connection error")
}

func newTLSConfig(cafile, certFile, certKeyFile string) (*tls.Config, error) {
	if cafile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if cafile != "" {
		cacert, err := os.ReadFile(cafile)
		if err != nil {
			return nil, errors.Wrap(err, "read ca certificate error")
		}
		certpool := x509.NewCertPool()
		certpool.AppendCertsFromPEM(cacert)

		tlsConfig.RootCAs = certpool
	}

	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load tls key-pair error")
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}

	return tlsConfig, nil
}
