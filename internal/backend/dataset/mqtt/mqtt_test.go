package mqtt

import (
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
	"github.com/brocaar/whitespace-server/internal/test"
)

type message struct {
	paho.Message

	topic   string
	payload []byte
}

func (m message) Topic() string {
	return m.topic
}

func (m message) Payload() []byte {
	return m.payload
}

func TestNotificationHandler(t *testing.T) {
	assert := require.New(t)

	b := Backend{
		notificationChan: make(chan dataset.Notification, 1),
	}

	b.notificationHandler(nil, message{topic: "whitespace/dataset/region", payload: []byte(`{"dataset":"region"}`)})
	n := <-b.notificationChan
	assert.Equal("region", n.Dataset)

	// invalid payloads are dropped
	b.notificationHandler(nil, message{topic: "whitespace/dataset/region", payload: []byte(`{}`)})
	assert.Len(b.notificationChan, 0)
}

func TestNewTLSConfig(t *testing.T) {
	assert := require.New(t)

	conf, err := newTLSConfig("", "", "")
	assert.NoError(err)
	assert.Nil(conf)

	_, err = newTLSConfig("/does/not/exist.pem", "", "")
	assert.Error(err)
}

type BackendTestSuite struct {
	suite.Suite

	backend    dataset.Backend
	mqttClient paho.Client
}

func (ts *BackendTestSuite) SetupSuite() {
	if os.Getenv("TEST_MQTT_SERVER") == "" {
		ts.T().Skip("TEST_MQTT_SERVER must be set")
	}

	assert := require.New(ts.T())
	conf := test.GetConfig()

	opts := paho.NewClientOptions().
		AddBroker(conf.Dataset.Backend.MQTT.Server).
		SetClientID("whitespace-test-publisher")
	ts.mqttClient = paho.NewClient(opts)
	token := ts.mqttClient.Connect()
	token.Wait()
	assert.NoError(token.Error())

	var err error
	ts.backend, err = NewBackend(conf)
	assert.NoError(err)
}

func (ts *BackendTestSuite) TearDownSuite() {
	assert := require.New(ts.T())

	assert.NoError(ts.backend.Close())
	ts.mqttClient.Disconnect(0)
}

func (ts *BackendTestSuite) TestNotification() {
	assert := require.New(ts.T())

	// the subscription is set up asynchronously in the connect handler
	time.Sleep(200 * time.Millisecond)

	token := ts.mqttClient.Publish("whitespace/dataset/tv_station", 1, false, []byte(`{"dataset":"tv_station","country":"us"}`))
	token.Wait()
	assert.NoError(token.Error())

	select {
	case n := <-ts.backend.NotificationChan():
		assert.Equal("tv_station", n.Dataset)
		assert.Equal("us", n.Country)
	case <-time.After(5 * time.Second):
		ts.T().Fatal("timeout waiting for notification")
	}
}

func TestBackend(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
