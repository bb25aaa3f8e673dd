// Package gcppubsub implements a dataset notification backend using Google
// Cloud Pub/Sub.
package gcppubsub

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/config"
)

const subscriptionTmpl = "%s-whitespace"

// Backend implements a Google Cloud Pub/Sub subscriber for dataset
// notifications.
type Backend struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	client       *pubsub.Client
	topic        *pubsub.Topic
	subscription *pubsub.Subscription

	notificationChan chan dataset.Notification
}

// NewBackend creates a new Backend.
func NewBackend(c config.Config) (dataset.Backend, error) {
	conf := c.Dataset.Backend.GCPPubSub

	b := Backend{
		done:             make(chan struct{}),
		notificationChan: make(chan dataset.Notification),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	var o []option.ClientOption
	if conf.CredentialsFile != "" {
		o = append(o, option.WithCredentialsFile(conf.CredentialsFile))
	}

	log.Info("dataset/gcp_pub_sub: setting up client")
	var err error
	b.client, err = pubsub.NewClient(b.ctx, conf.ProjectID, o...)
	if err != nil {
		b.cancel()
		return nil, errors.Wrap(err, "dataset/gcp_pub_sub: new pubsub client error")
	}

	log.WithField("topic", conf.TopicName).Info("dataset/gcp_pub_sub: setup notification topic")
	b.topic = b.client.Topic(conf.TopicName)
	ok, err := b.topic.Exists(b.ctx)
	if err != nil {
		b.cancel()
		return nil, errors.Wrap(err, "dataset/gcp_pub_sub: topic exists error")
	}
	if !ok {
		b.cancel()
		return nil, fmt.Errorf("dataset/gcp_pub_sub: notification topic '%s' does not exist", conf.TopicName)
	}

	subName := fmt.Sprintf(subscriptionTmpl, conf.TopicName)
	b.subscription = b.client.Subscription(subName)
	ok, err = b.subscription.Exists(b.ctx)
	if err != nil {
		b.cancel()
		return nil, errors.Wrap(err, "dataset/gcp_pub_sub: subscription exists error")
	}

	if !ok {
		log.WithField("subscription", subName).Info("dataset/gcp_pub_sub: create notification subscription")
		b.subscription, err = b.client.CreateSubscription(b.ctx, subName, pubsub.SubscriptionConfig{
			Topic:             b.topic,
			RetentionDuration: conf.RetentionDuration,
		})
		if err != nil {
			b.cancel()
			return nil, errors.Wrap(err, "dataset/gcp_pub_sub: create subscription error")
		}
	}

	go b.receiveLoop()

	return &b, nil
}

// NotificationChan returns the notification channel.
func (b *Backend) NotificationChan() chan dataset.Notification {
	return b.notificationChan
}

// Close closes the backend.
func (b *Backend) Close() error {
	log.Info("dataset/gcp_pub_sub: closing backend")
	b.cancel()
	<-b.done
	close(b.notificationChan)
	return b.client.Close()
}

func (b *Backend) receiveLoop() {
	defer close(b.done)

	for {
		err := b.subscription.Receive(b.ctx, b.receiveFunc)
		if b.ctx.Err() != nil {
			return
		}
		if err != nil {
			log.WithError(err).Error("dataset/gcp_pub_sub: receive error")
		}
		time.Sleep(2 * time.Second)
	}
}

func (b *Backend) receiveFunc(ctx context.Context, msg *pubsub.Message) {
	msg.Ack()

	if err := b.handleMessage(ctx, msg.Data); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"message_id":  msg.ID,
			"data_base64": base64.StdEncoding.EncodeToString(msg.Data),
		}).Error("dataset/gcp_pub_sub: handle received message error")
	}
}

func (b *Backend) handleMessage(ctx context.Context, data []byte) error {
	n, err := dataset.Decode(data)
	if err != nil {
		gcpEventCounter("invalid").Inc()
		return err
	}

	gcpEventCounter("notification").Inc()
	log.WithField("dataset", n.Dataset).Info("dataset/gcp_pub_sub: notification received")

	select {
	case b.notificationChan <- n:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "forward notification error")
	}
}
