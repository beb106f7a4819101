package catalog

import (
	"context"
	"sort"

	"github.com/cuemby/cri-mcp/pkg/crilog"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/cuemby/cri-mcp/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type operationView struct {
	ID         string `json:"id"`
	Tool       string `json:"tool"`
	State      string `json:"state"`
	FailedWith string `json:"failed_with"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

type daemonLog struct {
	path  string
	lines []string
}

func bridgeEntries() []*Entry {
	return []*Entry{
		{
			Name:        "daemon_logs",
			Group:       GroupBridge,
			Description: "Read the last lines of the runtime daemon's own log file. The bridge must run on the node that holds the file.",
			Args:        schema.NewArgs(tailArg()),
			Result:      "{log_path, lines: [string]}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				tailLines,
				func(_ context.Context, svc *Services, n int) (daemonLog, error) {
					path := svc.DaemonLogPath
					if path == "" {
						return daemonLog{}, status.Error(codes.FailedPrecondition, "no daemon log path configured")
					}
					lines, err := crilog.TailRaw(path, n)
					if err != nil {
						return daemonLog{}, logFileError(path, err)
					}
					return daemonLog{path: path, lines: lines}, nil
				},
				func(l daemonLog) (any, error) {
					return map[string]any{"log_path": l.path, "lines": emptyStrings(l.lines)}, nil
				},
			),
		},
		{
			Name:        "list_operations",
			Group:       GroupBridge,
			Description: "List long-running tool calls (exec_sync, pull_image, container_events) that are pending or running, plus recently finished ones.",
			Args: schema.NewArgs(
				schema.Bool("active_only", "Only pending and running operations").WithDefault(false),
			),
			Result:     "{operations: [{id, tool, state, failed_with, created_at, started_at, finished_at}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (bool, error) {
					return args.Bool("active_only"), nil
				},
				func(_ context.Context, svc *Services, activeOnly bool) ([]types.Operation, error) {
					if svc.Operations == nil {
						return nil, nil
					}
					var ops []types.Operation
					for _, op := range svc.Operations.List() {
						if activeOnly && op.State.Terminal() {
							continue
						}
						ops = append(ops, op)
					}
					return ops, nil
				},
				func(ops []types.Operation) (any, error) {
					sort.SliceStable(ops, func(i, j int) bool { return ops[i].CreatedAt.Before(ops[j].CreatedAt) })
					out := make([]operationView, 0, len(ops))
					for _, op := range ops {
						out = append(out, operationView{
							ID:         op.ID,
							Tool:       op.Tool,
							State:      string(op.State),
							FailedWith: string(op.FailedWith),
							CreatedAt:  formatTime(op.CreatedAt),
							StartedAt:  formatTime(op.StartedAt),
							FinishedAt: formatTime(op.FinishedAt),
						})
					}
					return map[string]any{"operations": out}, nil
				},
			),
		},
	}
}
