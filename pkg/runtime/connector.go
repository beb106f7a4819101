package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"

	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/log"
	"github.com/cuemby/cri-mcp/pkg/metrics"
)

const (
	// DefaultCallTimeout bounds a backend call whose context has no deadline
	DefaultCallTimeout = 30 * time.Second

	// DefaultDialTimeout bounds a connect or reconnect attempt
	DefaultDialTimeout = 10 * time.Second

	// DefaultReconnectCooldown is how long callers fail fast after a failed reconnect
	DefaultReconnectCooldown = 2 * time.Second

	maxMessageSize = 16 << 20
)

// Options configures a Connector
type Options struct {
	Endpoint          string
	CallTimeout       time.Duration
	DialTimeout       time.Duration
	ReconnectCooldown time.Duration
	// ReadOnly refuses mutating RPCs at the connection
	ReadOnly bool
	Broker   *events.Broker
	// ContextDialer replaces the socket dialer; the endpoint is then used as
	// an opaque passthrough address. Used by tests with bufconn.
	ContextDialer func(ctx context.Context, addr string) (net.Conn, error)
}

// ConnectError reports that no connection to the backend could be opened at startup
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to runtime at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Connector owns the single connection to the container runtime socket.
//
// It implements grpc.ClientConnInterface so the generated CRI and containerd
// clients run on top of it. Calls borrow the current connection under a read
// lock and multiplex over it; a transient transport failure marks the
// connection stale and triggers one reconnect, shared by every caller that
// observed the same stale generation. A failed reconnect starts a cooldown
// during which callers fail fast with Unavailable instead of queueing.
type Connector struct {
	opts   Options
	target string
	logger zerolog.Logger

	mu            sync.RWMutex
	conn          *grpc.ClientConn
	gen           uint64
	stale         bool
	closed        bool
	lastFailure   time.Time
	lastFailedGen uint64
	lastErr       error

	group    singleflight.Group
	attempts atomic.Int64
}

var _ grpc.ClientConnInterface = (*Connector)(nil)

// Connect opens the backend connection and waits until it is ready.
// A failure here is fatal to the caller: the bridge has nothing to serve.
func Connect(ctx context.Context, opts Options) (*Connector, error) {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ReconnectCooldown < 0 {
		opts.ReconnectCooldown = DefaultReconnectCooldown
	}

	target := opts.Endpoint
	if opts.ContextDialer == nil {
		var err error
		target, err = ParseEndpoint(opts.Endpoint)
		if err != nil {
			return nil, &ConnectError{Endpoint: opts.Endpoint, Err: err}
		}
	} else {
		target = "passthrough:///" + opts.Endpoint
	}

	c := &Connector{
		opts:   opts,
		target: target,
		logger: log.WithComponent("connector"),
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	conn, err := c.dial(dialCtx)
	if err != nil {
		return nil, &ConnectError{Endpoint: opts.Endpoint, Err: err}
	}

	c.conn = conn
	c.gen = 1
	metrics.BackendConnected.Set(1)
	c.publish(events.EventBackendConnected, "connected", nil)
	c.logger.Info().Str("endpoint", opts.Endpoint).Msg("Connected to runtime")
	return c, nil
}

// RuntimeService returns a CRI runtime client bound to this connector
func (c *Connector) RuntimeService() runtimeapi.RuntimeServiceClient {
	return runtimeapi.NewRuntimeServiceClient(c)
}

// ImageService returns a CRI image client bound to this connector
func (c *Connector) ImageService() runtimeapi.ImageServiceClient {
	return runtimeapi.NewImageServiceClient(c)
}

// Endpoint returns the configured endpoint
func (c *Connector) Endpoint() string {
	return c.opts.Endpoint
}

// Generation counts connections opened so far, starting at 1
func (c *Connector) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Stale reports whether the current connection is known to be broken
func (c *Connector) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// ReconnectAttempts counts reconnects tried since Connect
func (c *Connector) ReconnectAttempts() int64 {
	return c.attempts.Load()
}

// Invoke performs a unary RPC with the per-call timeout and at most one
// retry after a transient transport failure.
func (c *Connector) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	ctx, cancel := c.withCallTimeout(ctx)
	defer cancel()

	conn, gen, err := c.current(ctx)
	if err != nil {
		return err
	}

	err = conn.Invoke(ctx, method, args, reply, opts...)
	if err == nil || !IsTransient(ctx, err) {
		return err
	}

	c.logger.Warn().Err(err).Str("method", method).Uint64("generation", gen).Msg("Transient backend failure, reconnecting")

	conn, _, rerr := c.reconnect(ctx, gen)
	if rerr != nil {
		return rerr
	}
	return conn.Invoke(ctx, method, args, reply, opts...)
}

// NewStream opens a streaming RPC. Streams are bounded by the caller's
// context only; opening the stream is retried once like a unary call, but a
// stream that breaks after it was opened is not.
func (c *Connector) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	conn, gen, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := conn.NewStream(ctx, desc, method, opts...)
	if err == nil || !IsTransient(ctx, err) {
		return stream, err
	}

	conn, _, rerr := c.reconnect(ctx, gen)
	if rerr != nil {
		return nil, rerr
	}
	return conn.NewStream(ctx, desc, method, opts...)
}

// Close closes the connection. Calls after Close fail with Unavailable.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	metrics.BackendConnected.Set(0)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Connector) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.CallTimeout)
}

// current returns the connection to use, reconnecting first if it is stale
func (c *Connector) current(ctx context.Context) (*grpc.ClientConn, uint64, error) {
	c.mu.RLock()
	conn, gen, stale, closed := c.conn, c.gen, c.stale, c.closed
	c.mu.RUnlock()

	if closed {
		return nil, 0, errClosed
	}
	if !stale {
		return conn, gen, nil
	}
	return c.reconnect(ctx, gen)
}

var errClosed = status.Error(codes.Unavailable, "runtime connector is closed")

type connState struct {
	conn *grpc.ClientConn
	gen  uint64
}

// reconnect replaces the connection of generation failedGen. If another
// caller already replaced it, the new connection is returned without dialing.
func (c *Connector) reconnect(ctx context.Context, failedGen uint64) (*grpc.ClientConn, uint64, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, 0, errClosed
	}
	if c.gen != failedGen && !c.stale {
		conn, gen := c.conn, c.gen
		c.mu.Unlock()
		return conn, gen, nil
	}

	gen := c.gen
	if !c.stale {
		c.stale = true
		metrics.BackendConnected.Set(0)
		c.publish(events.EventBackendStale, "connection marked stale", map[string]string{
			"generation": strconv.FormatUint(gen, 10),
		})
	}

	if c.lastFailedGen == gen && time.Since(c.lastFailure) < c.opts.ReconnectCooldown {
		lastErr := c.lastErr
		c.mu.Unlock()
		return nil, 0, status.Errorf(codes.Unavailable, "runtime unavailable at %s: %v", c.opts.Endpoint, lastErr)
	}
	c.mu.Unlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.redial(gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		st := res.Val.(connState)
		return st.conn, st.gen, nil
	case <-ctx.Done():
		return nil, 0, status.FromContextError(ctx.Err()).Err()
	}
}

// redial runs once per stale generation. It is detached from any caller's
// context so that one caller giving up does not abort the shared attempt.
func (c *Connector) redial(gen uint64) (connState, error) {
	c.attempts.Add(1)
	c.logger.Info().Uint64("generation", gen).Msg("Reconnecting to runtime")

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	defer cancel()

	conn, err := c.dial(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastFailure = time.Now()
		c.lastFailedGen = gen
		c.lastErr = err
		c.mu.Unlock()

		metrics.BackendReconnectsTotal.WithLabelValues("failure").Inc()
		c.publish(events.EventBackendReconnectFailed, err.Error(), nil)
		c.logger.Error().Err(err).Str("endpoint", c.opts.Endpoint).Msg("Reconnect failed")
		return connState{}, status.Errorf(codes.Unavailable, "reconnect to %s failed: %v", c.opts.Endpoint, err)
	}
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return connState{}, errClosed
	}

	old := c.conn
	c.conn = conn
	c.gen = gen + 1
	c.stale = false
	newGen := c.gen
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	metrics.BackendReconnectsTotal.WithLabelValues("success").Inc()
	metrics.BackendConnected.Set(1)
	c.publish(events.EventBackendConnected, "reconnected", map[string]string{
		"generation": strconv.FormatUint(newGen, 10),
	})
	c.logger.Info().Uint64("generation", newGen).Msg("Reconnected to runtime")
	return connState{conn: conn, gen: newGen}, nil
}

func (c *Connector) dial(ctx context.Context) (*grpc.ClientConn, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMessageSize)),
		grpc.WithChainUnaryInterceptor(MetricsUnaryInterceptor()),
		grpc.WithChainStreamInterceptor(MetricsStreamInterceptor()),
	}
	if c.opts.ReadOnly {
		dialOpts = append(dialOpts,
			grpc.WithChainUnaryInterceptor(ReadOnlyUnaryInterceptor()),
			grpc.WithChainStreamInterceptor(ReadOnlyStreamInterceptor()),
		)
	}
	if c.opts.ContextDialer != nil {
		dialOpts = append(dialOpts, grpc.WithContextDialer(c.opts.ContextDialer))
	}

	conn, err := grpc.NewClient(c.target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := waitReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// waitReady drives conn out of idle and waits for the first connection
// attempt to settle. A transient failure is reported instead of waiting for
// gRPC's own backoff, so a dead socket fails the dial promptly.
func waitReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.TransientFailure:
			return errors.New("connection failed")
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		case connectivity.Idle:
			conn.Connect()
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("timed out waiting for connection: %w", ctx.Err())
		}
	}
}

func (c *Connector) publish(t events.EventType, msg string, metadata map[string]string) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["endpoint"] = c.opts.Endpoint
	c.opts.Broker.Publish(&events.Event{Type: t, Message: msg, Metadata: metadata})
}

// IsTransient reports whether err is a transport failure worth one retry on a
// fresh connection. Application errors (not found, already exists, invalid
// argument) and the caller's own cancellation or deadline never are.
func IsTransient(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case codes.Unavailable:
		return true
	case codes.Canceled:
		// The caller's context is live, so the connection was closed under us.
		return true
	case codes.Internal, codes.Unknown:
		msg := strings.ToLower(st.Message())
		return strings.Contains(msg, "connection reset") ||
			strings.Contains(msg, "rst_stream") ||
			strings.Contains(msg, "transport is closing")
	}
	return false
}
