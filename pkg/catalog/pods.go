package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/google/uuid"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

const (
	defaultPodNamespace = "default"
	podLogRoot          = "/var/log/pods"
)

var podStates = []string{"READY", "NOTREADY"}

func podIDArg() schema.Field {
	return schema.Str("pod_id", "Pod sandbox ID").Req()
}

func labelSelectorArg() schema.Field {
	return schema.StrMap("label_selector", "Only match objects carrying all of these labels")
}

// podLogDirectory is where the kubelet would place logs for the pod
func podLogDirectory(namespace, name, uid string) string {
	return filepath.Join(podLogRoot, fmt.Sprintf("%s_%s_%s", namespace, name, uid))
}

func podEntries() []*Entry {
	return []*Entry{
		{
			Name:        "list_pods",
			Group:       GroupPods,
			Description: "List pod sandboxes, optionally filtered by ID, state or labels.",
			Args: schema.NewArgs(
				schema.Str("id", "Only the pod with this ID"),
				schema.Str("state", "Only pods in this state").OneOf(podStates...),
				labelSelectorArg(),
			),
			Result:     "{pods: [{id, name, namespace, uid, attempt, state, created_at, labels, annotations, runtime_handler}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ListPodSandboxRequest, error) {
					filter := &runtimeapi.PodSandboxFilter{
						Id:            args.String("id"),
						LabelSelector: args.StringMap("label_selector"),
					}
					if s := args.String("state"); s != "" {
						filter.State = &runtimeapi.PodSandboxStateValue{
							State: runtimeapi.PodSandboxState(runtimeapi.PodSandboxState_value["SANDBOX_"+s]),
						}
					}
					return &runtimeapi.ListPodSandboxRequest{Filter: filter}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ListPodSandboxRequest) (*runtimeapi.ListPodSandboxResponse, error) {
					return svc.Runtime.ListPodSandbox(ctx, req)
				},
				func(resp *runtimeapi.ListPodSandboxResponse) (any, error) {
					pods := []podView{}
					for _, p := range resp.GetItems() {
						pods = append(pods, toPodView(p))
					}
					return map[string]any{"pods": pods}, nil
				},
			),
		},
		{
			Name:        "pod_status",
			Group:       GroupPods,
			Description: "Show the status of a pod sandbox: state, network addresses, labels and annotations.",
			Args: schema.NewArgs(
				podIDArg(),
				schema.Bool("verbose", "Include runtime specific info").WithDefault(false),
			),
			Result:     "{id, name, namespace, uid, attempt, state, created_at, labels, annotations, runtime_handler, ip, additional_ips, info}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.PodSandboxStatusRequest, error) {
					return &runtimeapi.PodSandboxStatusRequest{
						PodSandboxId: args.String("pod_id"),
						Verbose:      args.Bool("verbose"),
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.PodSandboxStatusRequest) (*runtimeapi.PodSandboxStatusResponse, error) {
					return svc.Runtime.PodSandboxStatus(ctx, req)
				},
				func(resp *runtimeapi.PodSandboxStatusResponse) (any, error) {
					if resp.GetStatus() == nil {
						return nil, fmt.Errorf("response carries no status")
					}
					return toPodStatusView(resp.GetStatus(), resp.GetInfo()), nil
				},
			),
		},
		{
			Name:        "create_pod",
			Group:       GroupPods,
			Description: "Create and start a pod sandbox. The runtime has no separate start step for pods. Namespace defaults to \"default\" and uid to a random UUID.",
			Args: schema.NewArgs(
				schema.Str("name", "Pod name").Req(),
				schema.Str("namespace", "Pod namespace").WithDefault(defaultPodNamespace),
				schema.Str("uid", "Pod UID, generated when empty"),
				schema.Int("attempt", schema.Uint32, "Attempt number").WithDefault(uint64(0)),
				schema.Str("hostname", "Hostname, defaults to <name>-<namespace>"),
				schema.Str("log_directory", "Log directory, defaults to /var/log/pods/<namespace>_<name>_<uid>"),
				schema.StrMap("labels", "Pod labels"),
				schema.StrMap("annotations", "Pod annotations"),
				schema.List("port_mappings", "Ports to publish on the host", schema.Obj("", "",
					schema.Int("container_port", schema.Int32, "Port inside the pod").Req(),
					schema.Int("host_port", schema.Int32, "Port on the host"),
					schema.Str("host_ip", "Host address to bind"),
					schema.Str("protocol", "Protocol").OneOf("TCP", "UDP", "SCTP").WithDefault("TCP"),
				)),
				schema.Obj("dns", "DNS configuration",
					schema.StrList("servers", "Name servers"),
					schema.StrList("searches", "Search domains"),
					schema.StrList("options", "resolv.conf options"),
				),
				schema.Str("cgroup_parent", "Parent cgroup of the sandbox"),
				schema.Bool("host_network", "Share the host network namespace").WithDefault(false),
				schema.Str("runtime_handler", "Runtime handler, e.g. runc or kata"),
			),
			Result:      "{pod_id}",
			binding: bind(
				encodeRunPodSandbox,
				func(ctx context.Context, svc *Services, req *runtimeapi.RunPodSandboxRequest) (*runtimeapi.RunPodSandboxResponse, error) {
					return svc.Runtime.RunPodSandbox(ctx, req)
				},
				func(resp *runtimeapi.RunPodSandboxResponse) (any, error) {
					return map[string]any{"pod_id": resp.GetPodSandboxId()}, nil
				},
			),
		},
		{
			Name:        "stop_pod",
			Group:       GroupPods,
			Description: "Stop a pod sandbox and every container in it, reclaiming its network. Stopping a stopped pod succeeds.",
			Args:        schema.NewArgs(podIDArg()),
			Result:      "{pod_id}",
			Destructive: true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.StopPodSandboxRequest, error) {
					return &runtimeapi.StopPodSandboxRequest{PodSandboxId: args.String("pod_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.StopPodSandboxRequest) (string, error) {
					_, err := svc.Runtime.StopPodSandbox(ctx, req)
					return req.GetPodSandboxId(), err
				},
				podIDResult,
			),
		},
		{
			Name:        "remove_pod",
			Group:       GroupPods,
			Description: "Remove a pod sandbox and its containers. Running containers are force removed.",
			Args:        schema.NewArgs(podIDArg()),
			Result:      "{pod_id}",
			Destructive: true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.RemovePodSandboxRequest, error) {
					return &runtimeapi.RemovePodSandboxRequest{PodSandboxId: args.String("pod_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.RemovePodSandboxRequest) (string, error) {
					_, err := svc.Runtime.RemovePodSandbox(ctx, req)
					return req.GetPodSandboxId(), err
				},
				podIDResult,
			),
		},
	}
}

func podIDResult(id string) (any, error) {
	return map[string]any{"pod_id": id}, nil
}

func encodeRunPodSandbox(args schema.Values) (*runtimeapi.RunPodSandboxRequest, error) {
	name := args.String("name")
	namespace := args.StringOr("namespace", defaultPodNamespace)
	uid := args.StringOr("uid", uuid.NewString())

	hostname := args.String("hostname")
	if hostname == "" {
		hostname = strings.ToLower(name + "-" + namespace)
	}
	logDir := args.String("log_directory")
	if logDir == "" {
		logDir = podLogDirectory(namespace, name, uid)
	}

	config := &runtimeapi.PodSandboxConfig{
		Metadata: &runtimeapi.PodSandboxMetadata{
			Name:      name,
			Namespace: namespace,
			Uid:       uid,
			Attempt:   args.Uint32("attempt"),
		},
		Hostname:     hostname,
		LogDirectory: logDir,
		Labels:       args.StringMap("labels"),
		Annotations:  args.StringMap("annotations"),
		Linux: &runtimeapi.LinuxPodSandboxConfig{
			CgroupParent:    args.String("cgroup_parent"),
			SecurityContext: &runtimeapi.LinuxSandboxSecurityContext{},
		},
	}

	for _, pm := range args.Objects("port_mappings") {
		config.PortMappings = append(config.PortMappings, &runtimeapi.PortMapping{
			Protocol:      runtimeapi.Protocol(runtimeapi.Protocol_value[pm.StringOr("protocol", "TCP")]),
			ContainerPort: pm.Int32("container_port"),
			HostPort:      pm.Int32("host_port"),
			HostIp:        pm.String("host_ip"),
		})
	}

	if dns := args.Object("dns"); dns != nil {
		config.DnsConfig = &runtimeapi.DNSConfig{
			Servers:  dns.Strings("servers"),
			Searches: dns.Strings("searches"),
			Options:  dns.Strings("options"),
		}
	}

	if args.Bool("host_network") {
		config.Linux.SecurityContext.NamespaceOptions = &runtimeapi.NamespaceOption{
			Network: runtimeapi.NamespaceMode_NODE,
		}
	}

	return &runtimeapi.RunPodSandboxRequest{
		Config:         config,
		RuntimeHandler: args.String("runtime_handler"),
	}, nil
}
