package api

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brocaar/whitespace-server/internal/ruleset"
)

var errToCode = map[error]codes.Code{
	ruleset.ErrNotSupported:      codes.Unimplemented,
	ruleset.ErrCalculationFailed: codes.Unavailable,
	ruleset.ErrInvalidDevice:     codes.InvalidArgument,
}

func errToRPCError(err error) error {
	cause := errors.Cause(err)
	code, ok := errToCode[cause]
	if !ok {
		code = codes.Unknown
	}
	return status.Error(code, err.Error())
}
