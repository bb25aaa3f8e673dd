package logging

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestNewContext(t *testing.T) {
	assert := require.New(t)

	ctx, err := NewContext(context.Background())
	assert.NoError(err)

	id, ok := ctx.Value(ContextIDKey).(uuid.UUID)
	assert.True(ok)
	assert.NotEqual(uuid.Nil, id)
	assert.Equal(id, FromContext(ctx).Data["ctx_id"])
}

func TestUnaryServerCtxIDInterceptor(t *testing.T) {
	assert := require.New(t)

	var got interface{}
	_, err := UnaryServerCtxIDInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req interface{}) (interface{}, error) {
		got = ctx.Value(ContextIDKey)
		return nil, nil
	})
	assert.NoError(err)
	assert.NotNil(got)
}
