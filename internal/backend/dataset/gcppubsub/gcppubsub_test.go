package gcppubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brocaar/whitespace-server/internal/backend/dataset"
)

func TestHandleMessage(t *testing.T) {
	assert := require.New(t)

	b := Backend{
		notificationChan: make(chan dataset.Notification, 1),
	}

	assert.NoError(b.handleMessage(context.Background(), []byte(`{"dataset":"lp_aux","country":"us"}`)))
	n := <-b.notificationChan
	assert.Equal("lp_aux", n.Dataset)
	assert.Equal("us", n.Country)

	assert.Error(b.handleMessage(context.Background(), []byte(`not json`)))
	assert.Len(b.notificationChan, 0)
}

func TestHandleMessageCanceled(t *testing.T) {
	assert := require.New(t)

	// unbuffered and never read
	b := Backend{
		notificationChan: make(chan dataset.Notification),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(b.handleMessage(ctx, []byte(`{"dataset":"region"}`)))
}
