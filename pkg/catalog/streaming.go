package catalog

import (
	"context"
	"time"

	"github.com/cuemby/cri-mcp/pkg/schema"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// execMargin is added to an exec_sync command timeout for the backend deadline
const execMargin = 5 * time.Second

type execSyncView struct {
	ExitCode int32  `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

func streamFields() []schema.Field {
	return []schema.Field{
		schema.Bool("tty", "Allocate a TTY. stderr is merged into stdout").WithDefault(false),
		schema.Bool("stdin", "Stream stdin").WithDefault(false),
		schema.Bool("stdout", "Stream stdout").WithDefault(true),
		schema.Bool("stderr", "Stream stderr").WithDefault(true),
	}
}

// streams applies the runtime's stream rules: a TTY has no separate stderr
// and at least one stream must be requested
func streams(args schema.Values) (tty, stdin, stdout, stderr bool, err error) {
	tty = args.Bool("tty")
	stdin = args.Bool("stdin")
	stdout = args.Bool("stdout")
	stderr = args.Bool("stderr") && !tty
	if !stdin && !stdout && !stderr {
		return false, false, false, false, schema.Errorf("stdout", "one of stdin, stdout or stderr must be true")
	}
	return tty, stdin, stdout, stderr, nil
}

func urlResult(url string) (any, error) {
	return map[string]any{"url": url}, nil
}

func streamingEntries() []*Entry {
	return []*Entry{
		{
			Name:        "exec_sync",
			Group:       GroupStreaming,
			Description: "Run a command in a container and wait for it to finish, returning exit code and output. timeout bounds the command in seconds, 0 means no limit.",
			Args: schema.NewArgs(
				containerIDArg(),
				schema.StrList("cmd", "Command and arguments").Req(),
				schema.Int("timeout", schema.Int64, "Command timeout in seconds").WithDefault(int64(0)),
			),
			Result:      "{exit_code, stdout, stderr}",
			LongRunning: true,
			Timeout: func(args schema.Values) time.Duration {
				return secondsDeadline(args.Int64("timeout"), execMargin)
			},
			binding: bind(
				func(args schema.Values) (*runtimeapi.ExecSyncRequest, error) {
					cmd := args.Strings("cmd")
					if len(cmd) == 0 {
						return nil, schema.Errorf("cmd", "must not be empty")
					}
					timeout, err := timeoutSeconds(args)
					if err != nil {
						return nil, err
					}
					return &runtimeapi.ExecSyncRequest{
						ContainerId: args.String("container_id"),
						Cmd:         cmd,
						Timeout:     timeout,
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ExecSyncRequest) (*runtimeapi.ExecSyncResponse, error) {
					return svc.Runtime.ExecSync(ctx, req)
				},
				func(resp *runtimeapi.ExecSyncResponse) (any, error) {
					return execSyncView{
						ExitCode: resp.GetExitCode(),
						Stdout:   string(resp.GetStdout()),
						Stderr:   string(resp.GetStderr()),
					}, nil
				},
			),
		},
		{
			Name:        "exec",
			Group:       GroupStreaming,
			Description: "Prepare an interactive exec session and return the runtime's streaming URL. The client connects to the URL itself.",
			Args: schema.NewArgs(append([]schema.Field{
				containerIDArg(),
				schema.StrList("cmd", "Command and arguments").Req(),
			}, streamFields()...)...),
			Result: "{url}",
			binding: bind(
				func(args schema.Values) (*runtimeapi.ExecRequest, error) {
					cmd := args.Strings("cmd")
					if len(cmd) == 0 {
						return nil, schema.Errorf("cmd", "must not be empty")
					}
					tty, stdin, stdout, stderr, err := streams(args)
					if err != nil {
						return nil, err
					}
					return &runtimeapi.ExecRequest{
						ContainerId: args.String("container_id"),
						Cmd:         cmd,
						Tty:         tty,
						Stdin:       stdin,
						Stdout:      stdout,
						Stderr:      stderr,
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ExecRequest) (*runtimeapi.ExecResponse, error) {
					return svc.Runtime.Exec(ctx, req)
				},
				func(resp *runtimeapi.ExecResponse) (any, error) {
					return urlResult(resp.GetUrl())
				},
			),
		},
		{
			Name:        "attach",
			Group:       GroupStreaming,
			Description: "Prepare an attach session to a running container and return the runtime's streaming URL.",
			Args:        schema.NewArgs(append([]schema.Field{containerIDArg()}, streamFields()...)...),
			Result:      "{url}",
			binding: bind(
				func(args schema.Values) (*runtimeapi.AttachRequest, error) {
					tty, stdin, stdout, stderr, err := streams(args)
					if err != nil {
						return nil, err
					}
					return &runtimeapi.AttachRequest{
						ContainerId: args.String("container_id"),
						Tty:         tty,
						Stdin:       stdin,
						Stdout:      stdout,
						Stderr:      stderr,
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.AttachRequest) (*runtimeapi.AttachResponse, error) {
					return svc.Runtime.Attach(ctx, req)
				},
				func(resp *runtimeapi.AttachResponse) (any, error) {
					return urlResult(resp.GetUrl())
				},
			),
		},
		{
			Name:        "port_forward",
			Group:       GroupStreaming,
			Description: "Prepare a port forward into a pod sandbox and return the runtime's streaming URL.",
			Args: schema.NewArgs(
				podIDArg(),
				schema.List("ports", "Pod ports to forward", schema.Int("", schema.Int32, "")).Req(),
			),
			Result: "{url}",
			binding: bind(
				func(args schema.Values) (*runtimeapi.PortForwardRequest, error) {
					ports := args.Int32s("ports")
					for _, p := range ports {
						if p < 1 || p > 65535 {
							return nil, schema.Errorf("ports", "port %d out of range 1-65535", p)
						}
					}
					return &runtimeapi.PortForwardRequest{
						PodSandboxId: args.String("pod_id"),
						Port:         ports,
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.PortForwardRequest) (*runtimeapi.PortForwardResponse, error) {
					return svc.Runtime.PortForward(ctx, req)
				},
				func(resp *runtimeapi.PortForwardResponse) (any, error) {
					return urlResult(resp.GetUrl())
				},
			),
		},
	}
}
