package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/google/uuid"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

const (
	defaultStopTimeout = int64(10)
	// stopMargin is added to the stop grace period for the backend deadline
	stopMargin = 10 * time.Second

	// maxTimeoutSeconds keeps a timeout argument plus its deadline margin
	// inside time.Duration
	maxTimeoutSeconds = int64((math.MaxInt64 - time.Minute) / time.Second)
)

var containerStates = []string{"CREATED", "RUNNING", "EXITED", "UNKNOWN"}

func containerIDArg() schema.Field {
	return schema.Str("container_id", "Container ID").Req()
}

// timeoutSeconds reads the "timeout" argument, rejecting values that
// would overflow when turned into a deadline
func timeoutSeconds(args schema.Values) (int64, error) {
	t := args.Int64("timeout")
	switch {
	case t < 0:
		return 0, schema.Errorf("timeout", "must not be negative, got %d", t)
	case t > maxTimeoutSeconds:
		return 0, schema.Errorf("timeout", "must be at most %d seconds, got %d", maxTimeoutSeconds, t)
	}
	return t, nil
}

// secondsDeadline is the backend deadline for a timeout argument. Out of
// range values never reach it; the encoder rejects them first.
func secondsDeadline(seconds int64, margin time.Duration) time.Duration {
	if seconds <= 0 || seconds > maxTimeoutSeconds {
		return 0
	}
	return time.Duration(seconds)*time.Second + margin
}

func resourceFields() []schema.Field {
	return []schema.Field{
		schema.Int("cpu_period", schema.Int64, "CFS period in microseconds"),
		schema.Int("cpu_quota", schema.Int64, "CFS quota in microseconds"),
		schema.Int("cpu_shares", schema.Int64, "Relative CPU weight"),
		schema.Int("memory_limit_bytes", schema.Int64, "Memory limit in bytes"),
		schema.Str("cpuset_cpus", "CPUs the container may use, e.g. 0-2"),
		schema.Str("cpuset_mems", "Memory nodes the container may use"),
	}
}

func encodeResources(v schema.Values) *runtimeapi.LinuxContainerResources {
	if v == nil {
		return nil
	}
	return &runtimeapi.LinuxContainerResources{
		CpuPeriod:          v.Int64("cpu_period"),
		CpuQuota:           v.Int64("cpu_quota"),
		CpuShares:          v.Int64("cpu_shares"),
		MemoryLimitInBytes: v.Int64("memory_limit_bytes"),
		CpusetCpus:         v.String("cpuset_cpus"),
		CpusetMems:         v.String("cpuset_mems"),
	}
}

func containerEntries() []*Entry {
	return []*Entry{
		{
			Name:        "list_containers",
			Group:       GroupContainers,
			Description: "List containers, optionally filtered by ID, pod, state or labels.",
			Args: schema.NewArgs(
				schema.Str("id", "Only the container with this ID"),
				schema.Str("pod_id", "Only containers of this pod sandbox"),
				schema.Str("state", "Only containers in this state").OneOf(containerStates...),
				labelSelectorArg(),
			),
			Result:     "{containers: [{id, pod_id, name, attempt, image, image_ref, state, created_at, labels, annotations}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ListContainersRequest, error) {
					filter := &runtimeapi.ContainerFilter{
						Id:            args.String("id"),
						PodSandboxId:  args.String("pod_id"),
						LabelSelector: args.StringMap("label_selector"),
					}
					if s := args.String("state"); s != "" {
						filter.State = &runtimeapi.ContainerStateValue{
							State: runtimeapi.ContainerState(runtimeapi.ContainerState_value["CONTAINER_"+s]),
						}
					}
					return &runtimeapi.ListContainersRequest{Filter: filter}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ListContainersRequest) (*runtimeapi.ListContainersResponse, error) {
					return svc.Runtime.ListContainers(ctx, req)
				},
				func(resp *runtimeapi.ListContainersResponse) (any, error) {
					containers := []containerView{}
					for _, c := range resp.GetContainers() {
						containers = append(containers, toContainerView(c))
					}
					return map[string]any{"containers": containers}, nil
				},
			),
		},
		{
			Name:        "container_status",
			Group:       GroupContainers,
			Description: "Show the status of a container: state, timestamps, exit code, image, mounts and log path.",
			Args: schema.NewArgs(
				containerIDArg(),
				schema.Bool("verbose", "Include runtime specific info").WithDefault(false),
			),
			Result:     "{id, name, attempt, state, created_at, started_at, finished_at, exit_code, image, image_ref, reason, message, log_path, mounts, labels, annotations, info}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ContainerStatusRequest, error) {
					return &runtimeapi.ContainerStatusRequest{
						ContainerId: args.String("container_id"),
						Verbose:     args.Bool("verbose"),
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ContainerStatusRequest) (*runtimeapi.ContainerStatusResponse, error) {
					return svc.Runtime.ContainerStatus(ctx, req)
				},
				func(resp *runtimeapi.ContainerStatusResponse) (any, error) {
					if resp.GetStatus() == nil {
						return nil, fmt.Errorf("response carries no status")
					}
					return toContainerStatusView(resp.GetStatus(), resp.GetInfo()), nil
				},
			),
		},
		{
			Name:        "create_container",
			Group:       GroupContainers,
			Description: "Create a container in an existing pod sandbox. The pod's config is read back from the runtime. The container is created but not started.",
			Args: schema.NewArgs(
				podIDArg(),
				schema.Str("image", "Image reference").Req(),
				schema.Str("name", "Container name, defaults to container-<random>"),
				schema.Int("attempt", schema.Uint32, "Attempt number").WithDefault(uint64(0)),
				schema.StrList("command", "Entrypoint override"),
				schema.StrList("args", "Arguments to the entrypoint"),
				schema.Str("working_dir", "Working directory"),
				schema.StrMap("env", "Environment variables"),
				schema.List("mounts", "Host paths to mount", schema.Obj("", "",
					schema.Str("container_path", "Path inside the container").Req(),
					schema.Str("host_path", "Path on the host").Req(),
					schema.Bool("readonly", "Mount read-only"),
					schema.Str("propagation", "Mount propagation").OneOf("PRIVATE", "HOST_TO_CONTAINER", "BIDIRECTIONAL"),
				)),
				schema.StrMap("labels", "Container labels"),
				schema.StrMap("annotations", "Container annotations"),
				schema.Str("log_path", "Log path relative to the pod log directory, defaults to <name>/<attempt>.log"),
				schema.Bool("tty", "Allocate a TTY"),
				schema.Bool("stdin", "Keep stdin open"),
				schema.Bool("privileged", "Run privileged"),
				schema.Obj("resources", "Linux resource limits", resourceFields()...),
			),
			Result: "{container_id}",
			binding: bind(
				encodeCreateContainer,
				func(ctx context.Context, svc *Services, req *runtimeapi.CreateContainerRequest) (*runtimeapi.CreateContainerResponse, error) {
					st, err := svc.Runtime.PodSandboxStatus(ctx, &runtimeapi.PodSandboxStatusRequest{PodSandboxId: req.GetPodSandboxId()})
					if err != nil {
						return nil, err
					}
					req.SandboxConfig = sandboxConfigFromStatus(st.GetStatus())
					return svc.Runtime.CreateContainer(ctx, req)
				},
				func(resp *runtimeapi.CreateContainerResponse) (any, error) {
					return containerIDResult(resp.GetContainerId())
				},
			),
		},
		{
			Name:        "start_container",
			Group:       GroupContainers,
			Description: "Start a created container.",
			Args:        schema.NewArgs(containerIDArg()),
			Result:      "{container_id}",
			binding: bind(
				func(args schema.Values) (*runtimeapi.StartContainerRequest, error) {
					return &runtimeapi.StartContainerRequest{ContainerId: args.String("container_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.StartContainerRequest) (string, error) {
					_, err := svc.Runtime.StartContainer(ctx, req)
					return req.GetContainerId(), err
				},
				containerIDResult,
			),
		},
		{
			Name:        "stop_container",
			Group:       GroupContainers,
			Description: "Stop a running container, sending SIGKILL after timeout seconds. Stopping a stopped container succeeds.",
			Args: schema.NewArgs(
				containerIDArg(),
				schema.Int("timeout", schema.Int64, "Grace period in seconds before the container is killed").WithDefault(defaultStopTimeout),
			),
			Result:      "{container_id}",
			Destructive: true,
			Idempotent:  true,
			Timeout: func(args schema.Values) time.Duration {
				return secondsDeadline(args.Int64("timeout"), stopMargin)
			},
			binding: bind(
				func(args schema.Values) (*runtimeapi.StopContainerRequest, error) {
					timeout, err := timeoutSeconds(args)
					if err != nil {
						return nil, err
					}
					return &runtimeapi.StopContainerRequest{
						ContainerId: args.String("container_id"),
						Timeout:     timeout,
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.StopContainerRequest) (string, error) {
					_, err := svc.Runtime.StopContainer(ctx, req)
					return req.GetContainerId(), err
				},
				containerIDResult,
			),
		},
		{
			Name:        "remove_container",
			Group:       GroupContainers,
			Description: "Remove a container. A running container is force removed.",
			Args:        schema.NewArgs(containerIDArg()),
			Result:      "{container_id}",
			Destructive: true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.RemoveContainerRequest, error) {
					return &runtimeapi.RemoveContainerRequest{ContainerId: args.String("container_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.RemoveContainerRequest) (string, error) {
					_, err := svc.Runtime.RemoveContainer(ctx, req)
					return req.GetContainerId(), err
				},
				containerIDResult,
			),
		},
		{
			Name:        "update_container_resources",
			Group:       GroupContainers,
			Description: "Update the CPU and memory limits of a container. Omitted limits are left to the runtime.",
			Args:        schema.NewArgs(append([]schema.Field{containerIDArg()}, resourceFields()...)...),
			Result:      "{container_id}",
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.UpdateContainerResourcesRequest, error) {
					return &runtimeapi.UpdateContainerResourcesRequest{
						ContainerId: args.String("container_id"),
						Linux:       encodeResources(args),
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.UpdateContainerResourcesRequest) (string, error) {
					_, err := svc.Runtime.UpdateContainerResources(ctx, req)
					return req.GetContainerId(), err
				},
				containerIDResult,
			),
		},
		{
			Name:        "reopen_container_log",
			Group:       GroupContainers,
			Description: "Ask the runtime to reopen a container's log file, e.g. after it was rotated.",
			Args:        schema.NewArgs(containerIDArg()),
			Result:      "{container_id}",
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ReopenContainerLogRequest, error) {
					return &runtimeapi.ReopenContainerLogRequest{ContainerId: args.String("container_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ReopenContainerLogRequest) (string, error) {
					_, err := svc.Runtime.ReopenContainerLog(ctx, req)
					return req.GetContainerId(), err
				},
				containerIDResult,
			),
		},
	}
}

func containerIDResult(id string) (any, error) {
	return map[string]any{"container_id": id}, nil
}

func encodeCreateContainer(args schema.Values) (*runtimeapi.CreateContainerRequest, error) {
	name := args.String("name")
	if name == "" {
		name = "container-" + uuid.NewString()[:8]
	}
	attempt := args.Uint32("attempt")
	logPath := args.String("log_path")
	if logPath == "" {
		logPath = fmt.Sprintf("%s/%d.log", name, attempt)
	}

	config := &runtimeapi.ContainerConfig{
		Metadata:    &runtimeapi.ContainerMetadata{Name: name, Attempt: attempt},
		Image:       &runtimeapi.ImageSpec{Image: args.String("image")},
		Command:     args.Strings("command"),
		Args:        args.Strings("args"),
		WorkingDir:  args.String("working_dir"),
		Labels:      args.StringMap("labels"),
		Annotations: args.StringMap("annotations"),
		LogPath:     logPath,
		Tty:         args.Bool("tty"),
		Stdin:       args.Bool("stdin"),
		Linux: &runtimeapi.LinuxContainerConfig{
			Resources: encodeResources(args.Object("resources")),
			SecurityContext: &runtimeapi.LinuxContainerSecurityContext{
				Privileged: args.Bool("privileged"),
			},
		},
	}

	env := args.StringMap("env")
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		config.Envs = append(config.Envs, &runtimeapi.KeyValue{Key: k, Value: env[k]})
	}

	for _, m := range args.Objects("mounts") {
		propagation := runtimeapi.MountPropagation_PROPAGATION_PRIVATE
		if p := m.String("propagation"); p != "" {
			propagation = runtimeapi.MountPropagation(runtimeapi.MountPropagation_value["PROPAGATION_"+p])
		}
		config.Mounts = append(config.Mounts, &runtimeapi.Mount{
			ContainerPath: m.String("container_path"),
			HostPath:      m.String("host_path"),
			Readonly:      m.Bool("readonly"),
			Propagation:   propagation,
		})
	}

	return &runtimeapi.CreateContainerRequest{
		PodSandboxId: args.String("pod_id"),
		Config:       config,
	}, nil
}

// sandboxConfigFromStatus rebuilds the parts of a pod's config that
// CreateContainer needs from the pod's reported status
func sandboxConfigFromStatus(st *runtimeapi.PodSandboxStatus) *runtimeapi.PodSandboxConfig {
	md := st.GetMetadata()
	return &runtimeapi.PodSandboxConfig{
		Metadata: &runtimeapi.PodSandboxMetadata{
			Name:      md.GetName(),
			Namespace: md.GetNamespace(),
			Uid:       md.GetUid(),
			Attempt:   md.GetAttempt(),
		},
		LogDirectory: podLogDirectory(md.GetNamespace(), md.GetName(), md.GetUid()),
		Labels:       st.GetLabels(),
		Annotations:  st.GetAnnotations(),
		Linux:        &runtimeapi.LinuxPodSandboxConfig{},
	}
}
