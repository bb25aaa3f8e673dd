// Package amqp implements a dataset notification backend using AMQP 0.9.1
// (e.g. RabbitMQ).
package amqp

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/config"
)

const exchange = "amq.topic"

// Backend implements an AMQP consumer for dataset notifications.
type Backend struct {
	url        string
	queueName  string
	routingKey string

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool

	done             chan struct{}
	notificationChan chan dataset.Notification
}

// NewBackend creates a new Backend.
func NewBackend(c config.Config) (dataset.Backend, error) {
	conf := c.Dataset.Backend.AMQP

	b := Backend{
		url:              conf.URL,
		queueName:        conf.QueueName,
		routingKey:       conf.RoutingKey,
		done:             make(chan struct{}),
		notificationChan: make(chan dataset.Notification),
	}

	log.Info("dataset/amqp: connecting to AMQP server")
	if err := b.connect(); err != nil {
		return nil, errors.Wrap(err, "dataset/amqp: connect error")
	}

	go b.eventLoop()

	return &b, nil
}

// NotificationChan returns the notification channel.
func (b *Backend) NotificationChan() chan dataset.Notification {
	return b.notificationChan
}

// Close closes the connection and the notification channel.
func (b *Backend) Close() error {
	log.Info("dataset/amqp: closing backend")

	b.mu.Lock()
	b.closed = true
	conn := b.conn
	b.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}

	<-b.done
	close(b.notificationChan)

	if err != nil && err != amqp.ErrClosed {
		return errors.Wrap(err, "close connection error")
	}
	return nil
}

func (b *Backend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return errors.Wrap(err, "dial error")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "open channel error")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(b.queueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return errors.Wrap(err, "declare queue error")
	}

	if err := ch.QueueBind(b.queueName, b.routingKey, exchange, false, nil); err != nil {
		conn.Close()
		return errors.Wrap(err, "bind queue error")
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	return nil
}

func (b *Backend) eventLoop() {
	defer close(b.done)

	for {
		err := b.consume()
		if b.isClosed() {
			return
		}

		if err != nil {
			log.WithError(err).Error("dataset/amqp: event loop error")
		}
		time.Sleep(time.Second)

		if err := b.connect(); err != nil {
			log.WithError(err).Error("dataset/amqp: reconnect error")
		}
	}
}

func (b *Backend) consume() error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel error")
	}
	defer ch.Close()

	log.Info("dataset/amqp: start consuming dataset notifications")

	msgs, err := ch.Consume(b.queueName, "", true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "register consumer error")
	}

	for msg := range msgs {
		if err := b.handleDelivery(msg); err != nil {
			log.WithError(err).WithField("routing_key", msg.RoutingKey).Error("dataset/amqp: handle notification error")
		}
	}

	return nil
}

func (b *Backend) handleDelivery(msg amqp.Delivery) error {
	n, err := dataset.Decode(msg.Body)
	if err != nil {
		amqpEventCounter("invalid").Inc()
		return err
	}

	amqpEventCounter("notification").Inc()
	log.WithFields(log.Fields{
		"routing_key": msg.RoutingKey,
		"dataset":     n.Dataset,
	}).Info("dataset/amqp: notification received")

	b.notificationChan <- n
	return nil
}
