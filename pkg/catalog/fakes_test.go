package catalog

import (
	"context"
	"io"

	containersapi "github.com/containerd/containerd/api/services/containers/v1"
	imagesapi "github.com/containerd/containerd/api/services/images/v1"
	tasksapi "github.com/containerd/containerd/api/services/tasks/v1"
	"github.com/containerd/containerd/namespaces"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// fakeRuntime implements the runtime client methods the tests exercise.
// Anything else panics through the nil embedded interface.
type fakeRuntime struct {
	runtimeapi.RuntimeServiceClient

	containers      []*runtimeapi.Container
	podStatus       *runtimeapi.PodSandboxStatus
	containerStatus *runtimeapi.ContainerStatus
	stats           *runtimeapi.ContainerStats
	events          []*runtimeapi.ContainerEventResponse
	// holdEvents keeps the event stream open after the last event
	holdEvents bool

	created *runtimeapi.CreateContainerRequest
	stopped *runtimeapi.StopContainerRequest
}

func (f *fakeRuntime) ListContainers(ctx context.Context, in *runtimeapi.ListContainersRequest, opts ...grpc.CallOption) (*runtimeapi.ListContainersResponse, error) {
	return &runtimeapi.ListContainersResponse{Containers: f.containers}, nil
}

func (f *fakeRuntime) PodSandboxStatus(ctx context.Context, in *runtimeapi.PodSandboxStatusRequest, opts ...grpc.CallOption) (*runtimeapi.PodSandboxStatusResponse, error) {
	if f.podStatus == nil || f.podStatus.Id != in.PodSandboxId {
		return nil, status.Errorf(codes.NotFound, "pod sandbox %q not found", in.PodSandboxId)
	}
	return &runtimeapi.PodSandboxStatusResponse{Status: f.podStatus}, nil
}

func (f *fakeRuntime) CreateContainer(ctx context.Context, in *runtimeapi.CreateContainerRequest, opts ...grpc.CallOption) (*runtimeapi.CreateContainerResponse, error) {
	f.created = in
	return &runtimeapi.CreateContainerResponse{ContainerId: "ctr-1"}, nil
}

func (f *fakeRuntime) StopContainer(ctx context.Context, in *runtimeapi.StopContainerRequest, opts ...grpc.CallOption) (*runtimeapi.StopContainerResponse, error) {
	f.stopped = in
	return &runtimeapi.StopContainerResponse{}, nil
}

func (f *fakeRuntime) ContainerStatus(ctx context.Context, in *runtimeapi.ContainerStatusRequest, opts ...grpc.CallOption) (*runtimeapi.ContainerStatusResponse, error) {
	if f.containerStatus == nil {
		return nil, status.Errorf(codes.NotFound, "container %q not found", in.ContainerId)
	}
	return &runtimeapi.ContainerStatusResponse{Status: f.containerStatus}, nil
}

func (f *fakeRuntime) ContainerStats(ctx context.Context, in *runtimeapi.ContainerStatsRequest, opts ...grpc.CallOption) (*runtimeapi.ContainerStatsResponse, error) {
	return &runtimeapi.ContainerStatsResponse{Stats: f.stats}, nil
}

func (f *fakeRuntime) GetContainerEvents(ctx context.Context, in *runtimeapi.GetEventsRequest, opts ...grpc.CallOption) (runtimeapi.RuntimeService_GetContainerEventsClient, error) {
	return &fakeEventStream{ctx: ctx, events: f.events, hold: f.holdEvents}, nil
}

type fakeEventStream struct {
	grpc.ClientStream

	ctx    context.Context
	events []*runtimeapi.ContainerEventResponse
	hold   bool
}

func (s *fakeEventStream) Recv() (*runtimeapi.ContainerEventResponse, error) {
	if len(s.events) > 0 {
		ev := s.events[0]
		s.events = s.events[1:]
		return ev, nil
	}
	if !s.hold {
		return nil, io.EOF
	}
	<-s.ctx.Done()
	return nil, status.FromContextError(s.ctx.Err()).Err()
}

type fakeImage struct {
	runtimeapi.ImageServiceClient

	image *runtimeapi.Image
}

func (f *fakeImage) ImageStatus(ctx context.Context, in *runtimeapi.ImageStatusRequest, opts ...grpc.CallOption) (*runtimeapi.ImageStatusResponse, error) {
	return &runtimeapi.ImageStatusResponse{Image: f.image}, nil
}

type fakeTasks struct {
	tasksapi.TasksClient

	namespace string
	resp      *tasksapi.ListTasksResponse
}

func (f *fakeTasks) List(ctx context.Context, in *tasksapi.ListTasksRequest, opts ...grpc.CallOption) (*tasksapi.ListTasksResponse, error) {
	f.namespace, _ = namespaces.Namespace(ctx)
	return f.resp, nil
}

type fakeContainerdContainers struct {
	containersapi.ContainersClient

	namespace string
	filters   []string
	items     []*containersapi.Container
}

func (f *fakeContainerdContainers) List(ctx context.Context, in *containersapi.ListContainersRequest, opts ...grpc.CallOption) (*containersapi.ListContainersResponse, error) {
	f.namespace, _ = namespaces.Namespace(ctx)
	f.filters = in.Filters
	return &containersapi.ListContainersResponse{Containers: f.items}, nil
}

type fakeContainerdImages struct {
	imagesapi.ImagesClient

	namespace string
	filters   []string
	items     []*imagesapi.Image
	err       error
}

func (f *fakeContainerdImages) List(ctx context.Context, in *imagesapi.ListImagesRequest, opts ...grpc.CallOption) (*imagesapi.ListImagesResponse, error) {
	f.namespace, _ = namespaces.Namespace(ctx)
	f.filters = in.Filters
	if f.err != nil {
		return nil, f.err
	}
	return &imagesapi.ListImagesResponse{Images: f.items}, nil
}
