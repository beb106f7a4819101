package catalog

import (
	"context"
	"fmt"

	"github.com/cuemby/cri-mcp/pkg/schema"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

func statsEntries() []*Entry {
	return []*Entry{
		{
			Name:        "container_stats",
			Group:       GroupStats,
			Description: "Show CPU, memory and writable layer usage of a container. Unreported values are null.",
			Args:        schema.NewArgs(containerIDArg()),
			Result:      "{id, name, attempt, labels, cpu, memory, writable_layer}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ContainerStatsRequest, error) {
					return &runtimeapi.ContainerStatsRequest{ContainerId: args.String("container_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ContainerStatsRequest) (*runtimeapi.ContainerStatsResponse, error) {
					return svc.Runtime.ContainerStats(ctx, req)
				},
				func(resp *runtimeapi.ContainerStatsResponse) (any, error) {
					if resp.GetStats() == nil {
						return nil, fmt.Errorf("response carries no stats")
					}
					return toContainerStatsView(resp.GetStats()), nil
				},
			),
		},
		{
			Name:        "list_container_stats",
			Group:       GroupStats,
			Description: "Show resource usage of all containers, optionally filtered by ID, pod or labels.",
			Args: schema.NewArgs(
				schema.Str("id", "Only the container with this ID"),
				schema.Str("pod_id", "Only containers of this pod sandbox"),
				labelSelectorArg(),
			),
			Result:     "{stats: [{id, name, attempt, labels, cpu, memory, writable_layer}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ListContainerStatsRequest, error) {
					return &runtimeapi.ListContainerStatsRequest{Filter: &runtimeapi.ContainerStatsFilter{
						Id:            args.String("id"),
						PodSandboxId:  args.String("pod_id"),
						LabelSelector: args.StringMap("label_selector"),
					}}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ListContainerStatsRequest) (*runtimeapi.ListContainerStatsResponse, error) {
					return svc.Runtime.ListContainerStats(ctx, req)
				},
				func(resp *runtimeapi.ListContainerStatsResponse) (any, error) {
					stats := []containerStatsView{}
					for _, s := range resp.GetStats() {
						stats = append(stats, toContainerStatsView(s))
					}
					return map[string]any{"stats": stats}, nil
				},
			),
		},
		{
			Name:        "pod_stats",
			Group:       GroupStats,
			Description: "Show CPU, memory, network and process usage of a pod sandbox and its containers.",
			Args:        schema.NewArgs(podIDArg()),
			Result:      "{id, name, namespace, uid, labels, cpu, memory, network, process_count, containers}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.PodSandboxStatsRequest, error) {
					return &runtimeapi.PodSandboxStatsRequest{PodSandboxId: args.String("pod_id")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.PodSandboxStatsRequest) (*runtimeapi.PodSandboxStatsResponse, error) {
					return svc.Runtime.PodSandboxStats(ctx, req)
				},
				func(resp *runtimeapi.PodSandboxStatsResponse) (any, error) {
					if resp.GetStats() == nil {
						return nil, fmt.Errorf("response carries no stats")
					}
					return toPodStatsView(resp.GetStats()), nil
				},
			),
		},
		{
			Name:        "list_pod_stats",
			Group:       GroupStats,
			Description: "Show resource usage of all pod sandboxes, optionally filtered by ID or labels.",
			Args: schema.NewArgs(
				schema.Str("id", "Only the pod with this ID"),
				labelSelectorArg(),
			),
			Result:     "{stats: [{id, name, namespace, uid, labels, cpu, memory, network, process_count, containers}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ListPodSandboxStatsRequest, error) {
					return &runtimeapi.ListPodSandboxStatsRequest{Filter: &runtimeapi.PodSandboxStatsFilter{
						Id:            args.String("id"),
						LabelSelector: args.StringMap("label_selector"),
					}}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ListPodSandboxStatsRequest) (*runtimeapi.ListPodSandboxStatsResponse, error) {
					return svc.Runtime.ListPodSandboxStats(ctx, req)
				},
				func(resp *runtimeapi.ListPodSandboxStatsResponse) (any, error) {
					stats := []podStatsView{}
					for _, s := range resp.GetStats() {
						stats = append(stats, toPodStatsView(s))
					}
					return map[string]any{"stats": stats}, nil
				},
			),
		},
	}
}
