package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuemby/cri-mcp/pkg/catalog"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

type fakeRuntime struct {
	runtimeapi.RuntimeServiceClient

	calls     atomic.Int64
	statusErr error
	// emptyStatus returns a status response with no status in it
	emptyStatus  bool
	execStarted  chan struct{}
	execReleased chan struct{}
	stopDeadline time.Time
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		execStarted:  make(chan struct{}, 4),
		execReleased: make(chan struct{}, 4),
	}
}

func (f *fakeRuntime) Version(ctx context.Context, in *runtimeapi.VersionRequest, opts ...grpc.CallOption) (*runtimeapi.VersionResponse, error) {
	f.calls.Add(1)
	return &runtimeapi.VersionResponse{Version: "0.1.0", RuntimeName: "containerd", RuntimeVersion: "v1.7.24", RuntimeApiVersion: "v1"}, nil
}

func (f *fakeRuntime) ContainerStatus(ctx context.Context, in *runtimeapi.ContainerStatusRequest, opts ...grpc.CallOption) (*runtimeapi.ContainerStatusResponse, error) {
	f.calls.Add(1)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.emptyStatus {
		return &runtimeapi.ContainerStatusResponse{}, nil
	}
	return &runtimeapi.ContainerStatusResponse{Status: &runtimeapi.ContainerStatus{Id: in.ContainerId}}, nil
}

func (f *fakeRuntime) ListContainers(ctx context.Context, in *runtimeapi.ListContainersRequest, opts ...grpc.CallOption) (*runtimeapi.ListContainersResponse, error) {
	f.calls.Add(1)
	return &runtimeapi.ListContainersResponse{}, nil
}

func (f *fakeRuntime) StopContainer(ctx context.Context, in *runtimeapi.StopContainerRequest, opts ...grpc.CallOption) (*runtimeapi.StopContainerResponse, error) {
	f.calls.Add(1)
	f.stopDeadline, _ = ctx.Deadline()
	return &runtimeapi.StopContainerResponse{}, nil
}

// ExecSync holds the call open until the context ends, like a backend
// streaming an exec session that never finishes
func (f *fakeRuntime) ExecSync(ctx context.Context, in *runtimeapi.ExecSyncRequest, opts ...grpc.CallOption) (*runtimeapi.ExecSyncResponse, error) {
	f.calls.Add(1)
	f.execStarted <- struct{}{}
	<-ctx.Done()
	f.execReleased <- struct{}{}
	return nil, status.FromContextError(ctx.Err()).Err()
}

type memoryJournal struct {
	mu      sync.Mutex
	records []types.CallRecord
}

func (j *memoryJournal) Record(rec types.CallRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *memoryJournal) all() []types.CallRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]types.CallRecord(nil), j.records...)
}

func newDispatcher(t *testing.T, rt *fakeRuntime, opts Options) *Dispatcher {
	t.Helper()
	cat, err := catalog.New(catalog.Options{})
	require.NoError(t, err)
	return New(cat, catalog.Services{Runtime: rt}, nil, opts)
}

func TestUnknownToolNeverReachesBackend(t *testing.T) {
	rt := newFakeRuntime()
	journal := &memoryJournal{}
	d := newDispatcher(t, rt, Options{Journal: journal})

	result := d.Dispatch(context.Background(), types.ToolCall{Name: "launch_rockets"})
	require.False(t, result.OK())
	assert.Equal(t, types.KindUnknownTool, result.Kind())
	assert.Contains(t, result.Failure().Message, "launch_rockets")
	assert.Zero(t, rt.calls.Load())

	records := journal.all()
	require.Len(t, records, 1)
	assert.Equal(t, types.KindUnknownTool, records[0].Kind)
}

func TestInvalidArgumentsNeverReachBackend(t *testing.T) {
	tests := []struct {
		name  string
		tool  string
		args  map[string]any
		field string
	}{
		{name: "missing required", tool: "container_status", args: map[string]any{}, field: "container_id"},
		{name: "empty required", tool: "container_status", args: map[string]any{"container_id": ""}, field: "container_id"},
		{name: "wrong type", tool: "container_status", args: map[string]any{"container_id": 7}, field: "container_id"},
		{name: "unknown field", tool: "list_containers", args: map[string]any{"colour": "red"}, field: "colour"},
		{name: "bad enum", tool: "list_containers", args: map[string]any{"state": "SLEEPING"}, field: "state"},
		{name: "fraction", tool: "stop_container", args: map[string]any{"container_id": "c1", "timeout": 1.5}, field: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newFakeRuntime()
			d := newDispatcher(t, rt, Options{})

			result := d.Dispatch(context.Background(), types.ToolCall{Name: tt.tool, Arguments: tt.args})
			require.False(t, result.OK())
			assert.Equal(t, types.KindInvalidArguments, result.Kind())
			assert.Contains(t, result.Failure().Message, tt.field)
			assert.Zero(t, rt.calls.Load())
		})
	}
}

func TestDispatchRaw(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{})

	result := d.DispatchRaw(context.Background(), "stop_container", json.RawMessage(`{"container_id":"c1","timeout":9223372036854775808}`))
	assert.Equal(t, types.KindInvalidArguments, result.Kind())
	assert.Contains(t, result.Failure().Message, "timeout")

	result = d.DispatchRaw(context.Background(), "list_containers", json.RawMessage(`[1,2]`))
	assert.Equal(t, types.KindInvalidArguments, result.Kind())

	result = d.DispatchRaw(context.Background(), "list_containers", nil)
	assert.True(t, result.OK())
	assert.Equal(t, int64(1), rt.calls.Load())
}

func TestDispatchRawUnknownToolBeforeArguments(t *testing.T) {
	rt := newFakeRuntime()
	journal := &memoryJournal{}
	d := newDispatcher(t, rt, Options{Journal: journal})

	for _, raw := range []string{`{not json`, `[1,2]`, `{"a":1e999999999}`} {
		result := d.DispatchRaw(context.Background(), "no_such_tool", json.RawMessage(raw))
		assert.Equal(t, types.KindUnknownTool, result.Kind(), raw)
		assert.Contains(t, result.Failure().Message, "no_such_tool")
	}
	assert.Equal(t, int64(0), rt.calls.Load())

	records := journal.all()
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, types.KindUnknownTool, r.Kind)
	}
}

func TestSuccess(t *testing.T) {
	rt := newFakeRuntime()
	journal := &memoryJournal{}
	d := newDispatcher(t, rt, Options{Journal: journal})

	result := d.Dispatch(context.Background(), types.ToolCall{Name: "version", Arguments: map[string]any{}})
	require.True(t, result.OK())

	data, err := json.Marshal(result.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"0.1.0","runtime_name":"containerd","runtime_version":"v1.7.24","runtime_api_version":"v1"}`, string(data))

	records := journal.all()
	require.Len(t, records, 1)
	assert.Equal(t, "version", records[0].Tool)
	assert.Equal(t, types.KindOK, records[0].Kind)
	assert.NotEmpty(t, records[0].ID)
}

func TestBackendErrorMapping(t *testing.T) {
	tests := []struct {
		code codes.Code
		want types.Kind
	}{
		{codes.NotFound, types.KindNotFound},
		{codes.AlreadyExists, types.KindAlreadyExists},
		{codes.PermissionDenied, types.KindPermissionDenied},
		{codes.Unauthenticated, types.KindPermissionDenied},
		{codes.InvalidArgument, types.KindInvalidArguments},
		{codes.FailedPrecondition, types.KindFailedPrecondition},
		{codes.Unimplemented, types.KindUnimplemented},
		{codes.Unavailable, types.KindUnavailable},
		{codes.DeadlineExceeded, types.KindDeadlineExceeded},
		{codes.Canceled, types.KindUnavailable},
		{codes.Internal, types.KindInternal},
		{codes.ResourceExhausted, types.KindInternal},
		{codes.Unknown, types.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			rt := newFakeRuntime()
			rt.statusErr = status.Errorf(tt.code, "backend says %s", tt.code)
			d := newDispatcher(t, rt, Options{})

			result := d.Dispatch(context.Background(), types.ToolCall{
				Name:      "container_status",
				Arguments: map[string]any{"container_id": "c1"},
			})
			require.False(t, result.OK())
			assert.Equal(t, tt.want, result.Kind())
			assert.Equal(t, "backend says "+tt.code.String(), result.Failure().Message)
		})
	}
}

func TestDecodeFailureIsOpaqueInternal(t *testing.T) {
	rt := newFakeRuntime()
	rt.emptyStatus = true
	d := newDispatcher(t, rt, Options{})

	result := d.Dispatch(context.Background(), types.ToolCall{
		Name:      "container_status",
		Arguments: map[string]any{"container_id": "c1"},
	})
	assert.Equal(t, types.KindInternal, result.Kind())
	assert.Equal(t, internalMessage, result.Failure().Message)
}

func TestExecSyncCancellation(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan types.ToolResult, 1)
	go func() {
		done <- d.Dispatch(ctx, types.ToolCall{
			Name:      "exec_sync",
			Arguments: map[string]any{"container_id": "c1", "cmd": []any{"sleep", "3600"}},
		})
	}()

	<-rt.execStarted
	ops := d.Tracker().List()
	require.Len(t, ops, 1)
	assert.Equal(t, types.OperationRunning, ops[0].State)

	cancel()

	select {
	case result := <-done:
		assert.Equal(t, types.KindCancelled, result.Kind())
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not return after cancellation")
	}

	select {
	case <-rt.execReleased:
	case <-time.After(time.Second):
		t.Fatal("backend exec was not released")
	}

	op, ok := d.Tracker().Get(ops[0].ID)
	require.True(t, ok)
	assert.Equal(t, types.OperationCancelled, op.State)
	assert.Zero(t, d.Tracker().Active())
}

func TestExecSyncDeadline(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{LongRunningTimeout: 50 * time.Millisecond})

	result := d.Dispatch(context.Background(), types.ToolCall{
		Name:      "exec_sync",
		Arguments: map[string]any{"container_id": "c1", "cmd": []any{"sleep", "3600"}},
	})
	assert.Equal(t, types.KindDeadlineExceeded, result.Kind())
	<-rt.execReleased

	ops := d.Tracker().List()
	require.Len(t, ops, 1)
	assert.Equal(t, types.OperationFailed, ops[0].State)
	assert.Equal(t, types.KindDeadlineExceeded, ops[0].FailedWith)
}

func TestTimeoutFollowsArguments(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{CallTimeout: time.Second})

	before := time.Now()
	result := d.Dispatch(context.Background(), types.ToolCall{
		Name:      "stop_container",
		Arguments: map[string]any{"container_id": "c1", "timeout": 120},
	})
	require.True(t, result.OK())
	assert.WithinDuration(t, before.Add(130*time.Second), rt.stopDeadline, 5*time.Second)

	before = time.Now()
	result = d.Dispatch(context.Background(), types.ToolCall{
		Name:      "stop_container",
		Arguments: map[string]any{"container_id": "c1", "timeout": 0},
	})
	require.True(t, result.OK())
	assert.WithinDuration(t, before.Add(10*time.Second), rt.stopDeadline, 5*time.Second)
}

func TestListOperationsSeesTracker(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{LongRunningTimeout: 10 * time.Millisecond})

	d.Dispatch(context.Background(), types.ToolCall{
		Name:      "exec_sync",
		Arguments: map[string]any{"container_id": "c1", "cmd": []any{"true"}},
	})
	<-rt.execReleased

	result := d.Dispatch(context.Background(), types.ToolCall{Name: "list_operations", Arguments: map[string]any{}})
	require.True(t, result.OK())

	data, err := json.Marshal(result.Payload())
	require.NoError(t, err)
	var out struct {
		Operations []struct {
			Tool       string `json:"tool"`
			State      string `json:"state"`
			FailedWith string `json:"failed_with"`
		} `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Operations, 1)
	assert.Equal(t, "exec_sync", out.Operations[0].Tool)
	assert.Equal(t, "failed", out.Operations[0].State)
	assert.Equal(t, "DeadlineExceeded", out.Operations[0].FailedWith)
}

func TestConcurrentDispatch(t *testing.T) {
	rt := newFakeRuntime()
	d := newDispatcher(t, rt, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := d.Dispatch(context.Background(), types.ToolCall{Name: "list_containers", Arguments: map[string]any{}})
			assert.True(t, result.OK())
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(32), rt.calls.Load())
}
