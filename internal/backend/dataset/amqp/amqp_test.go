package amqp

import (
	"os"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/test"
)

func TestHandleDelivery(t *testing.T) {
	assert := require.New(t)

	b := Backend{
		notificationChan: make(chan dataset.Notification, 1),
	}

	assert.NoError(b.handleDelivery(amqp.Delivery{
		RoutingKey: "dataset.region",
		Body:       []byte(`{"dataset":"region","country":"gb"}`),
	}))
	n := <-b.notificationChan
	assert.Equal(dataset.Notification{Dataset: "region", Country: "gb"}, n)

	assert.EqualError(b.handleDelivery(amqp.Delivery{Body: []byte(`{}`)}), "dataset must not be empty")
	assert.Len(b.notificationChan, 0)
}

type BackendTestSuite struct {
	suite.Suite

	backend     dataset.Backend
	amqpConn    *amqp.Connection
	amqpChannel *amqp.Channel
}

func (ts *BackendTestSuite) SetupSuite() {
	if os.Getenv("TEST_AMQP_URL") == "" {
		ts.T().Skip("TEST_AMQP_URL must be set")
	}

	var err error
	assert := require.New(ts.T())
	conf := test.GetConfig()

	ts.backend, err = NewBackend(conf)
	assert.NoError(err)

	ts.amqpConn, err = amqp.Dial(conf.Dataset.Backend.AMQP.URL)
	assert.NoError(err)

	ts.amqpChannel, err = ts.amqpConn.Channel()
	assert.NoError(err)
}

func (ts *BackendTestSuite) TearDownSuite() {
	assert := require.New(ts.T())

	assert.NoError(ts.backend.Close())
	assert.NoError(ts.amqpConn.Close())
}

func (ts *BackendTestSuite) TestNotification() {
	assert := require.New(ts.T())

	err := ts.amqpChannel.Publish(
		exchange,
		"dataset.lpaux",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        []byte(`{"dataset":"lpaux","country":"us"}`),
		},
	)
	assert.NoError(err)

	select {
	case n := <-ts.backend.NotificationChan():
		assert.Equal("lpaux", n.Dataset)
	case <-time.After(5 * time.Second):
		ts.T().Fatal("timeout waiting for notification")
	}
}

func TestBackend(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
