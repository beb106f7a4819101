package runtime

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
)

// MetricsUnaryInterceptor records every backend RPC by method and status code
func MetricsUnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		timer := metrics.NewTimer()
		err := invoker(ctx, method, req, reply, cc, opts...)

		name := methodName(method)
		code := status.Code(err)
		metrics.BackendRequestsTotal.WithLabelValues(name, code.String()).Inc()
		timer.ObserveDurationVec(metrics.BackendRequestDuration, name)

		log.Logger.Debug().
			Str("method", name).
			Str("code", code.String()).
			Dur("duration", timer.Duration()).
			Msg("Backend call")
		return err
	}
}

// MetricsStreamInterceptor counts stream opens by method and status code
func MetricsStreamInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		stream, err := streamer(ctx, desc, cc, method, opts...)
		metrics.BackendRequestsTotal.WithLabelValues(methodName(method), status.Code(err).String()).Inc()
		return stream, err
	}
}

// ReadOnlyUnaryInterceptor refuses every RPC that can change runtime state.
// The catalog already hides mutating tools in read-only mode; this guards the
// connection itself.
func ReadOnlyUnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if !IsReadOnlyMethod(method) {
			return status.Errorf(codes.PermissionDenied, "%s is not allowed in read-only mode", methodName(method))
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// ReadOnlyStreamInterceptor is the streaming counterpart of ReadOnlyUnaryInterceptor
func ReadOnlyStreamInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		if !IsReadOnlyMethod(method) {
			return nil, status.Errorf(codes.PermissionDenied, "%s is not allowed in read-only mode", methodName(method))
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

// IsReadOnlyMethod checks if a backend method only reads state
func IsReadOnlyMethod(method string) bool {
	name := methodName(method)

	readOnlyPrefixes := []string{
		"List",
		"Get",
	}
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	readOnlySuffixes := []string{
		"Status",
		"Stats",
		"FsInfo",
	}
	for _, suffix := range readOnlySuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	// Version is served by both CRI and containerd's version service
	return name == "Version"
}

// methodName extracts the method from a full path,
// e.g. "/runtime.v1.RuntimeService/ListContainers" -> "ListContainers"
func methodName(method string) string {
	parts := strings.Split(method, "/")
	return parts[len(parts)-1]
}
