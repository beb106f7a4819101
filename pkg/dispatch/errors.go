package dispatch

import (
	"context"
	"errors"

	"github.com/cuemby/cri-mcp/pkg/catalog"
	"github.com/cuemby/cri-mcp/pkg/runtime"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/cuemby/cri-mcp/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// internalMessage is all a client learns about a bridge-side failure
const internalMessage = "internal error while handling the runtime response"

// KindForCode maps a backend status code to a failure kind
func KindForCode(code codes.Code) types.Kind {
	switch code {
	case codes.OK:
		return types.KindOK
	case codes.NotFound:
		return types.KindNotFound
	case codes.AlreadyExists:
		return types.KindAlreadyExists
	case codes.PermissionDenied, codes.Unauthenticated:
		return types.KindPermissionDenied
	case codes.InvalidArgument, codes.OutOfRange:
		return types.KindInvalidArguments
	case codes.FailedPrecondition:
		return types.KindFailedPrecondition
	case codes.Unimplemented:
		return types.KindUnimplemented
	case codes.Unavailable:
		return types.KindUnavailable
	case codes.DeadlineExceeded:
		return types.KindDeadlineExceeded
	case codes.Canceled:
		return types.KindCancelled
	default:
		return types.KindInternal
	}
}

// classify turns a failed call into a failure kind and client message.
// ctx is the call context, used to tell caller cancellation and deadline
// expiry apart from backend-reported conditions.
func classify(ctx context.Context, err error) (types.Kind, string) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return types.KindInvalidArguments, verr.Error()
	}

	var derr *catalog.DecodeError
	if errors.As(err, &derr) {
		return types.KindInternal, internalMessage
	}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.Canceled):
		return types.KindCancelled, "call cancelled"
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return types.KindDeadlineExceeded, "call exceeded its deadline"
	}

	var cerr *runtime.ConnectError
	if errors.As(err, &cerr) {
		return types.KindUnavailable, cerr.Error()
	}

	st, ok := status.FromError(err)
	if !ok {
		return types.KindInternal, internalMessage
	}
	kind := KindForCode(st.Code())
	if kind == types.KindCancelled {
		// The caller is still waiting, so the backend dropped the call.
		kind = types.KindUnavailable
	}
	return kind, st.Message()
}
