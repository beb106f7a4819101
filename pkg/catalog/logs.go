package catalog

import (
	"context"
	"errors"
	"io/fs"

	"github.com/cuemby/cri-mcp/pkg/crilog"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

const (
	defaultTailLines = int64(100)
	maxTailLines     = int64(10000)
)

type logTailRequest struct {
	containerID string
	lines       int
	stream      string
}

func tailArg() schema.Field {
	return schema.Int("tail", schema.Int64, "Number of lines from the end of the log, at most 10000").WithDefault(defaultTailLines)
}

func tailLines(args schema.Values) (int, error) {
	n := args.Int64("tail")
	if n < 1 || n > maxTailLines {
		return 0, schema.Errorf("tail", "must be between 1 and %d, got %d", maxTailLines, n)
	}
	return int(n), nil
}

// logFileError turns a local log read failure into a status error
func logFileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return status.Errorf(codes.NotFound, "log file %s does not exist", path)
	}
	if errors.Is(err, fs.ErrPermission) {
		return status.Errorf(codes.PermissionDenied, "cannot read log file %s", path)
	}
	return status.Errorf(codes.Internal, "read log file %s: %v", path, err)
}

func logEntries() []*Entry {
	return []*Entry{
		{
			Name:        "container_logs",
			Group:       GroupLogs,
			Description: "Read the last lines of a container's log. The bridge must run on the node that holds the log file.",
			Args: schema.NewArgs(
				containerIDArg(),
				tailArg(),
				schema.Str("stream", "Which stream to return").OneOf("all", crilog.Stdout, crilog.Stderr).WithDefault("all"),
			),
			Result:     "{container_id, log_path, lines: [{time, stream, message}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (logTailRequest, error) {
					n, err := tailLines(args)
					if err != nil {
						return logTailRequest{}, err
					}
					stream := args.String("stream")
					if stream == "all" {
						stream = ""
					}
					return logTailRequest{containerID: args.String("container_id"), lines: n, stream: stream}, nil
				},
				readContainerLog,
				func(resp containerLog) (any, error) {
					lines := make([]logLineView, 0, len(resp.lines))
					for _, l := range resp.lines {
						lines = append(lines, logLineView{
							Time:    l.Time.UTC().Format(timeLayout),
							Stream:  l.Stream,
							Message: l.Message,
						})
					}
					return map[string]any{
						"container_id": resp.containerID,
						"log_path":     resp.path,
						"lines":        lines,
					}, nil
				},
			),
		},
	}
}

type containerLog struct {
	containerID string
	path        string
	lines       []crilog.Line
}

func readContainerLog(ctx context.Context, svc *Services, req logTailRequest) (containerLog, error) {
	resp, err := svc.Runtime.ContainerStatus(ctx, &runtimeapi.ContainerStatusRequest{ContainerId: req.containerID})
	if err != nil {
		return containerLog{}, err
	}
	path := resp.GetStatus().GetLogPath()
	if path == "" {
		return containerLog{}, status.Errorf(codes.FailedPrecondition, "container %s has no log path", req.containerID)
	}
	lines, err := crilog.Tail(path, req.lines, req.stream)
	if err != nil {
		return containerLog{}, logFileError(path, err)
	}
	return containerLog{containerID: req.containerID, path: path, lines: lines}, nil
}
