/*
Package runtime owns the connection from cri-mcp to the container runtime.

The Connector holds the single gRPC connection to the runtime socket
(containerd by default, any CRI implementation works) and implements
grpc.ClientConnInterface, so the generated CRI RuntimeService and ImageService
clients and containerd's native clients all run through it. Every tool call
in the bridge ends up as one Invoke or NewStream on this type.

# Architecture

	┌──────────────────────── RUNTIME CONNECTOR ────────────────────────┐
	│                                                                    │
	│   catalog entries                                                  │
	│   ┌──────────────┐ ┌──────────────┐ ┌───────────────────────────┐  │
	│   │ RuntimeSvc   │ │ ImageSvc     │ │ containerd native         │  │
	│   │ client (CRI) │ │ client (CRI) │ │ Version Namespaces Tasks  │  │
	│   │              │ │              │ │ Containers Images         │  │
	│   └──────┬───────┘ └──────┬───────┘ └─────────────┬─────────────┘  │
	│          └────────────────┼───────────────────────┘                │
	│                           ▼                                        │
	│   ┌────────────────────────────────────────────────────────────┐   │
	│   │                  Connector                                 │   │
	│   │  - Invoke / NewStream (grpc.ClientConnInterface)           │   │
	│   │  - per-call timeout when the caller set none               │   │
	│   │  - one retry after a transient failure                     │   │
	│   │  - single-flight reconnect, cooldown after failure         │   │
	│   └────────────────────────────┬───────────────────────────────┘   │
	│                                ▼                                   │
	│   ┌────────────────────────────────────────────────────────────┐   │
	│   │              *grpc.ClientConn (generation N)               │   │
	│   │  interceptors: metrics, read-only guard (optional)         │   │
	│   └────────────────────────────┬───────────────────────────────┘   │
	│                                ▼                                   │
	│              unix:///run/containerd/containerd.sock                │
	└────────────────────────────────────────────────────────────────────┘

# Connection Lifecycle

	Connect ──► gen 1 (ready)
	               │ transient failure observed by a call
	               ▼
	            stale ──► redial (single flight per generation)
	               │            │ success            │ failure
	               │            ▼                    ▼
	               │         gen 2 (ready)     cooldown: calls fail fast
	               │                           with Unavailable, then the
	               └────────────────────────── next call redials

Calls take the current connection under a read lock and multiplex over it.
A reconnect swaps the connection under the write lock and then closes the old
one, so an in-flight call either completes on the old handle or fails and is
retried on the new one.

Connect itself does not retry. If the socket is missing or the runtime does
not become ready within the dial timeout, Connect returns *ConnectError and
the bridge refuses to start.

# Core Components

Connector:
  - Created by Connect, closed by Close
  - Generation counts connections opened so far, starting at 1
  - Stale reports whether the current connection is known to be broken
  - ReconnectAttempts counts redials since Connect

Client accessors:
  - RuntimeService: runtimeapi.RuntimeServiceClient over the connector
  - ImageService: runtimeapi.ImageServiceClient over the connector
  - Containerd: ContainerdServices with the Version, Namespaces, Tasks,
    Containers and Images clients

Endpoint parsing:
  - ParseEndpoint turns a configured endpoint into a gRPC dial target
  - DefaultEndpoint is unix:///run/containerd/containerd.sock

Interceptors:
  - MetricsUnaryInterceptor and MetricsStreamInterceptor
  - ReadOnlyUnaryInterceptor and ReadOnlyStreamInterceptor
  - IsReadOnlyMethod classifies a full method path

# Call Policy

  - A call without a deadline gets the configured call timeout (30s default).
  - A transient transport failure (Unavailable, connection closing, connection
    reset) is retried exactly once on a fresh connection.
  - Application errors (NotFound, AlreadyExists, InvalidArgument, ...) and the
    caller's own cancellation or deadline are returned untouched.
  - Streams are retried only while opening.

IsTransient implements the classification. A Canceled status counts as
transient only when the caller's context is still live, since the caller did
not ask for it.

# Interceptors

Every connection carries a metrics interceptor recording RPCs by method and
status code. In read-only mode a second interceptor refuses every method that
can change runtime state with PermissionDenied.

A method is read-only when its name starts with List or Get, ends with
Status, Stats or FsInfo, or is Version:

	/runtime.v1.RuntimeService/ListContainers              read-only
	/runtime.v1.ImageService/ImageFsInfo                   read-only
	/containerd.services.images.v1.Images/List             read-only
	/runtime.v1.RuntimeService/ExecSync                    refused
	/containerd.services.containers.v1.Containers/Delete   refused

# Endpoints

	unix:///run/containerd/containerd.sock   default
	/run/crio/crio.sock                      bare socket path
	tcp://127.0.0.1:10010                    TCP, for remote test daemons

# Containerd Namespaces

containerd's native services are namespaced. WithNamespace scopes a context
to a namespace, falling back to DefaultNamespace (k8s.io), which is where the
CRI plugin keeps Kubernetes pods, containers and images.

# Usage

	conn, err := runtime.Connect(ctx, runtime.Options{
		Endpoint:    runtime.DefaultEndpoint,
		CallTimeout: 30 * time.Second,
		ReadOnly:    true,
		Broker:      broker,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := conn.RuntimeService().Version(ctx, &runtimeapi.VersionRequest{})

	svc := conn.Containerd()
	images, err := svc.Images.List(runtime.WithNamespace(ctx, ""), &imagesapi.ListImagesRequest{})

Tests replace the socket with bufconn through Options.ContextDialer; the
endpoint is then a passthrough address.

# Integration Points

  - pkg/catalog binds every tool to a client returned here
  - pkg/dispatch maps the errors returned here to failure kinds
  - pkg/events receives backend.connected, backend.stale and
    backend.reconnect_failed
  - pkg/metrics records cri_mcp_backend_requests_total,
    cri_mcp_backend_request_duration_seconds, cri_mcp_backend_reconnects_total
    and cri_mcp_backend_connected

# Troubleshooting

Startup fails with "failed to connect to runtime":
  - Check the socket exists and the process can open it (usually root)
  - Check the endpoint scheme: unix:// for sockets, tcp:// for TCP

Calls fail with Unavailable right after one another:
  - A reconnect failed and the cooldown is active
  - Watch backend.reconnect_failed events and cri_mcp_backend_connected

Every mutating tool returns PermissionDenied:
  - The connector runs in read-only mode; see the read_only setting
*/
package runtime
