package runtime

import (
	"context"

	containersapi "github.com/containerd/containerd/api/services/containers/v1"
	imagesapi "github.com/containerd/containerd/api/services/images/v1"
	namespacesapi "github.com/containerd/containerd/api/services/namespaces/v1"
	tasksapi "github.com/containerd/containerd/api/services/tasks/v1"
	versionapi "github.com/containerd/containerd/api/services/version/v1"
	"github.com/containerd/containerd/namespaces"
)

// DefaultNamespace is the containerd namespace used by the CRI plugin
const DefaultNamespace = "k8s.io"

// ContainerdServices are containerd's native APIs. containerd serves them on
// the same socket as CRI, so they share the connector and its reconnect policy.
type ContainerdServices struct {
	Version    versionapi.VersionClient
	Namespaces namespacesapi.NamespacesClient
	Tasks      tasksapi.TasksClient
	Containers containersapi.ContainersClient
	Images     imagesapi.ImagesClient
}

// Containerd returns containerd native clients bound to this connector
func (c *Connector) Containerd() ContainerdServices {
	return ContainerdServices{
		Version:    versionapi.NewVersionClient(c),
		Namespaces: namespacesapi.NewNamespacesClient(c),
		Tasks:      tasksapi.NewTasksClient(c),
		Containers: containersapi.NewContainersClient(c),
		Images:     imagesapi.NewImagesClient(c),
	}
}

// WithNamespace scopes ctx to a containerd namespace for native API calls
func WithNamespace(ctx context.Context, namespace string) context.Context {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespaces.WithNamespace(ctx, namespace)
}
