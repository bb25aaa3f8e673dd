// Package logging holds the context id helpers shared by the API and the
// background tasks.
package logging

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus/ctxlogrus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// ContextKey defines the context key type.
type ContextKey string

// ContextIDKey holds the key of the context ID.
const ContextIDKey ContextKey = "ctx_id"

// NewContext returns a copy of ctx holding a new random context ID.
func NewContext(ctx context.Context) (context.Context, error) {
	ctxID, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "new uuid error")
	}
	return context.WithValue(ctx, ContextIDKey, ctxID), nil
}

// FromContext returns a log entry holding the ctx_id field of ctx.
func FromContext(ctx context.Context) *log.Entry {
	return log.WithField("ctx_id", ctx.Value(ContextIDKey))
}

// UnaryServerCtxIDInterceptor adds the ContextIDKey to the context and sets
// it as a log field.
func UnaryServerCtxIDInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := NewContext(ctx)
	if err != nil {
		return nil, err
	}
	ctxlogrus.AddFields(ctx, log.Fields{
		"ctx_id": ctx.Value(ContextIDKey),
	})

	return handler(ctx, req)
}
