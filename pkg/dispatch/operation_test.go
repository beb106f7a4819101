package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuemby/cri-mcp/pkg/catalog"
	"github.com/cuemby/cri-mcp/pkg/events"
	"github.com/cuemby/cri-mcp/pkg/runtime"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTrackerTransitions(t *testing.T) {
	tests := []struct {
		name       string
		kind       types.Kind
		wantState  types.OperationState
		wantFailed types.Kind
	}{
		{name: "completed", kind: types.KindOK, wantState: types.OperationCompleted},
		{name: "cancelled", kind: types.KindCancelled, wantState: types.OperationCancelled},
		{name: "deadline", kind: types.KindDeadlineExceeded, wantState: types.OperationFailed, wantFailed: types.KindDeadlineExceeded},
		{name: "backend failure", kind: types.KindNotFound, wantState: types.OperationFailed, wantFailed: types.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(nil)
			id := tr.Start("pull_image")

			op, ok := tr.Get(id)
			require.True(t, ok)
			assert.Equal(t, types.OperationPending, op.State)
			assert.Equal(t, 1, tr.Active())

			require.NoError(t, tr.Running(id))
			require.NoError(t, tr.Finish(id, tt.kind))

			op, _ = tr.Get(id)
			assert.Equal(t, tt.wantState, op.State)
			assert.Equal(t, tt.wantFailed, op.FailedWith)
			assert.False(t, op.FinishedAt.IsZero())
			assert.False(t, op.FinishedAt.Before(op.StartedAt))
			assert.Zero(t, tr.Active())
		})
	}
}

func TestTrackerRejectsInvalidTransitions(t *testing.T) {
	tr := NewTracker(nil)
	id := tr.Start("exec_sync")

	require.NoError(t, tr.Running(id))
	assert.Error(t, tr.Running(id))

	require.NoError(t, tr.Finish(id, types.KindOK))
	assert.Error(t, tr.Finish(id, types.KindInternal))
	assert.Error(t, tr.Running(id))

	op, _ := tr.Get(id)
	assert.Equal(t, types.OperationCompleted, op.State)

	assert.Error(t, tr.Running("missing"))
	assert.Error(t, tr.Finish("missing", types.KindOK))
}

func TestTrackerRetention(t *testing.T) {
	tr := NewTracker(nil)
	first := tr.Start("exec_sync")
	require.NoError(t, tr.Finish(first, types.KindOK))

	for i := 0; i < finishedRetention; i++ {
		id := tr.Start("exec_sync")
		require.NoError(t, tr.Finish(id, types.KindOK))
	}
	live := tr.Start("pull_image")

	_, ok := tr.Get(first)
	assert.False(t, ok)
	_, ok = tr.Get(live)
	assert.True(t, ok)
	assert.Len(t, tr.List(), finishedRetention+1)
}

func TestTrackerPublishesEvents(t *testing.T) {
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe(events.TopicOperation)
	defer broker.Unsubscribe(sub)

	tr := NewTracker(broker)
	id := tr.Start("pull_image")
	require.NoError(t, tr.Running(id))
	require.NoError(t, tr.Finish(id, types.KindUnavailable))

	want := []events.EventType{events.EventOperationStarted, events.EventOperationRunning, events.EventOperationFailed}
	for _, wt := range want {
		select {
		case ev := <-sub.C:
			assert.Equal(t, wt, ev.Type)
			assert.Equal(t, id, ev.Metadata["operation_id"])
		case <-time.After(time.Second):
			t.Fatalf("no %s event", wt)
		}
	}
}

func TestClassify(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want types.Kind
	}{
		{name: "validation", ctx: live, err: schema.Errorf("cmd", "must not be empty"), want: types.KindInvalidArguments},
		{name: "decode", ctx: live, err: &catalog.DecodeError{Tool: "version", Err: errors.New("boom")}, want: types.KindInternal},
		{name: "caller cancelled", ctx: cancelled, err: status.Error(codes.Canceled, "context canceled"), want: types.KindCancelled},
		{name: "deadline", ctx: expired, err: status.Error(codes.DeadlineExceeded, "context deadline exceeded"), want: types.KindDeadlineExceeded},
		{name: "connect", ctx: live, err: &runtime.ConnectError{Endpoint: "unix:///x", Err: errors.New("refused")}, want: types.KindUnavailable},
		{name: "backend cancel", ctx: live, err: status.Error(codes.Canceled, "grpc: the client connection is closing"), want: types.KindUnavailable},
		{name: "plain error", ctx: live, err: errors.New("surprise"), want: types.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, msg := classify(tt.ctx, tt.err)
			assert.Equal(t, tt.want, kind)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestKindForCode(t *testing.T) {
	assert.Equal(t, types.KindOK, KindForCode(codes.OK))
	assert.Equal(t, types.KindInternal, KindForCode(codes.DataLoss))
	assert.Equal(t, types.KindInternal, KindForCode(codes.Aborted))
	assert.Equal(t, types.KindInvalidArguments, KindForCode(codes.OutOfRange))
}
