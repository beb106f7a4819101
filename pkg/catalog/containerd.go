package catalog

import (
	"context"
	"sort"

	containersapi "github.com/containerd/containerd/api/services/containers/v1"
	imagesapi "github.com/containerd/containerd/api/services/images/v1"
	namespacesapi "github.com/containerd/containerd/api/services/namespaces/v1"
	tasksapi "github.com/containerd/containerd/api/services/tasks/v1"
	versionapi "github.com/containerd/containerd/api/services/version/v1"
	"github.com/cuemby/cri-mcp/pkg/runtime"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type namespaceView struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

type taskView struct {
	ID          string `json:"id"`
	ContainerID string `json:"container_id"`
	Pid         uint32 `json:"pid"`
	Status      string `json:"status"`
	ExitStatus  uint32 `json:"exit_status"`
	ExitedAt    string `json:"exited_at"`
}

type containerdContainerView struct {
	ID          string            `json:"id"`
	Image       string            `json:"image"`
	Runtime     string            `json:"runtime"`
	Snapshotter string            `json:"snapshotter"`
	SnapshotKey string            `json:"snapshot_key"`
	Labels      map[string]string `json:"labels"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

type containerdImageView struct {
	Name      string            `json:"name"`
	Digest    string            `json:"digest"`
	MediaType string            `json:"media_type"`
	Size      int64             `json:"size"`
	Labels    map[string]string `json:"labels"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

// namespaced carries a containerd message together with the namespace it
// is scoped to. The namespace is resolved at invoke time so results can
// report it.
type namespaced[T any] struct {
	namespace string
	msg       T
}

// resolveNamespace picks the call's namespace, then the configured one,
// then the CRI default.
func resolveNamespace(svc *Services, ns string) string {
	if ns == "" {
		ns = svc.Namespace
	}
	if ns == "" {
		ns = runtime.DefaultNamespace
	}
	return ns
}

func filters(expr string) []string {
	if expr == "" {
		return nil
	}
	return []string{expr}
}

// formatTimestamp renders a protobuf timestamp, empty when unset
func formatTimestamp(ts *timestamppb.Timestamp) string {
	if ts == nil || !ts.IsValid() || ts.GetSeconds() <= 0 {
		return ""
	}
	return ts.AsTime().UTC().Format(timeLayout)
}

var namespaceArg = schema.Str("namespace", "containerd namespace, defaults to the configured one (k8s.io)")

func containerdEntries() []*Entry {
	return []*Entry{
		{
			Name:        "containerd_version",
			Group:       GroupContainerd,
			Description: "Report the containerd daemon version and git revision.",
			Args:        schema.NewArgs(),
			Result:      "{version, revision}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(schema.Values) (*emptypb.Empty, error) {
					return &emptypb.Empty{}, nil
				},
				func(ctx context.Context, svc *Services, req *emptypb.Empty) (*versionapi.VersionResponse, error) {
					return svc.Containerd.Version.Version(ctx, req)
				},
				func(resp *versionapi.VersionResponse) (any, error) {
					return map[string]any{"version": resp.GetVersion(), "revision": resp.GetRevision()}, nil
				},
			),
		},
		{
			Name:        "list_namespaces",
			Group:       GroupContainerd,
			Description: "List containerd namespaces. Kubernetes workloads live in k8s.io.",
			Args:        schema.NewArgs(),
			Result:      "{namespaces: [{name, labels}]}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(schema.Values) (*namespacesapi.ListNamespacesRequest, error) {
					return &namespacesapi.ListNamespacesRequest{}, nil
				},
				func(ctx context.Context, svc *Services, req *namespacesapi.ListNamespacesRequest) (*namespacesapi.ListNamespacesResponse, error) {
					return svc.Containerd.Namespaces.List(ctx, req)
				},
				func(resp *namespacesapi.ListNamespacesResponse) (any, error) {
					out := []namespaceView{}
					for _, ns := range resp.GetNamespaces() {
						out = append(out, namespaceView{Name: ns.GetName(), Labels: emptyMap(ns.GetLabels())})
					}
					sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
					return map[string]any{"namespaces": out}, nil
				},
			),
		},
		{
			Name:        "list_tasks",
			Group:       GroupContainerd,
			Description: "List containerd tasks (running processes) in a namespace, with pid and status.",
			Args: schema.NewArgs(
				namespaceArg,
				schema.Str("filter", "containerd filter expression, e.g. status==running"),
			),
			Result:     "{namespace, tasks: [{id, container_id, pid, status, exit_status, exited_at}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (namespaced[*tasksapi.ListTasksRequest], error) {
					return namespaced[*tasksapi.ListTasksRequest]{
						namespace: args.String("namespace"),
						msg:       &tasksapi.ListTasksRequest{Filter: args.String("filter")},
					}, nil
				},
				func(ctx context.Context, svc *Services, req namespaced[*tasksapi.ListTasksRequest]) (namespaced[*tasksapi.ListTasksResponse], error) {
					ns := resolveNamespace(svc, req.namespace)
					resp, err := svc.Containerd.Tasks.List(runtime.WithNamespace(ctx, ns), req.msg)
					if err != nil {
						return namespaced[*tasksapi.ListTasksResponse]{}, err
					}
					return namespaced[*tasksapi.ListTasksResponse]{namespace: ns, msg: resp}, nil
				},
				func(l namespaced[*tasksapi.ListTasksResponse]) (any, error) {
					tasks := []taskView{}
					for _, p := range l.msg.GetTasks() {
						tasks = append(tasks, taskView{
							ID:          p.ID,
							ContainerID: p.ContainerID,
							Pid:         p.Pid,
							Status:      p.Status.String(),
							ExitStatus:  p.ExitStatus,
							ExitedAt:    formatTimestamp(p.ExitedAt),
						})
					}
					return map[string]any{"namespace": l.namespace, "tasks": tasks}, nil
				},
			),
		},
		{
			Name:        "list_containerd_containers",
			Group:       GroupContainerd,
			Description: "List containerd container records in a namespace. These are metadata objects and may have no running task.",
			Args: schema.NewArgs(
				namespaceArg,
				schema.Str("filter", "containerd filter expression, e.g. labels.\"io.kubernetes.pod.namespace\"==default"),
			),
			Result:     "{namespace, containers: [{id, image, runtime, snapshotter, snapshot_key, labels, created_at, updated_at}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (namespaced[*containersapi.ListContainersRequest], error) {
					return namespaced[*containersapi.ListContainersRequest]{
						namespace: args.String("namespace"),
						msg:       &containersapi.ListContainersRequest{Filters: filters(args.String("filter"))},
					}, nil
				},
				func(ctx context.Context, svc *Services, req namespaced[*containersapi.ListContainersRequest]) (namespaced[*containersapi.ListContainersResponse], error) {
					ns := resolveNamespace(svc, req.namespace)
					resp, err := svc.Containerd.Containers.List(runtime.WithNamespace(ctx, ns), req.msg)
					if err != nil {
						return namespaced[*containersapi.ListContainersResponse]{}, err
					}
					return namespaced[*containersapi.ListContainersResponse]{namespace: ns, msg: resp}, nil
				},
				func(l namespaced[*containersapi.ListContainersResponse]) (any, error) {
					out := []containerdContainerView{}
					for _, c := range l.msg.GetContainers() {
						v := containerdContainerView{
							ID:          c.ID,
							Image:       c.Image,
							Snapshotter: c.Snapshotter,
							SnapshotKey: c.SnapshotKey,
							Labels:      emptyMap(c.Labels),
							CreatedAt:   formatTimestamp(c.CreatedAt),
							UpdatedAt:   formatTimestamp(c.UpdatedAt),
						}
						if c.Runtime != nil {
							v.Runtime = c.Runtime.Name
						}
						out = append(out, v)
					}
					sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
					return map[string]any{"namespace": l.namespace, "containers": out}, nil
				},
			),
		},
		{
			Name:        "list_containerd_images",
			Group:       GroupContainerd,
			Description: "List images held in containerd's image store for a namespace, with target digest and size.",
			Args: schema.NewArgs(
				namespaceArg,
				schema.Str("filter", "containerd filter expression, e.g. name~=busybox"),
			),
			Result:     "{namespace, images: [{name, digest, media_type, size, labels, created_at, updated_at}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (namespaced[*imagesapi.ListImagesRequest], error) {
					return namespaced[*imagesapi.ListImagesRequest]{
						namespace: args.String("namespace"),
						msg:       &imagesapi.ListImagesRequest{Filters: filters(args.String("filter"))},
					}, nil
				},
				func(ctx context.Context, svc *Services, req namespaced[*imagesapi.ListImagesRequest]) (namespaced[*imagesapi.ListImagesResponse], error) {
					ns := resolveNamespace(svc, req.namespace)
					resp, err := svc.Containerd.Images.List(runtime.WithNamespace(ctx, ns), req.msg)
					if err != nil {
						return namespaced[*imagesapi.ListImagesResponse]{}, err
					}
					return namespaced[*imagesapi.ListImagesResponse]{namespace: ns, msg: resp}, nil
				},
				func(l namespaced[*imagesapi.ListImagesResponse]) (any, error) {
					out := []containerdImageView{}
					for _, img := range l.msg.GetImages() {
						target := img.GetTarget()
						out = append(out, containerdImageView{
							Name:      img.GetName(),
							Digest:    target.GetDigest(),
							MediaType: target.GetMediaType(),
							Size:      target.GetSize(),
							Labels:    emptyMap(img.GetLabels()),
							CreatedAt: formatTimestamp(img.GetCreatedAt()),
							UpdatedAt: formatTimestamp(img.GetUpdatedAt()),
						})
					}
					sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
					return map[string]any{"namespace": l.namespace, "images": out}, nil
				},
			),
		},
	}
}
