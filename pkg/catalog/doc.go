/*
Package catalog is the fixed table of tools the bridge serves.

Each Entry couples an argument schema with a typed binding to one backend
call. The catalog is built once at startup from Options and never changes
afterwards, so the tool list a client sees is stable for the life of the
process.

# Architecture

	┌──────────────────────────── CATALOG ──────────────────────────────┐
	│                                                                    │
	│   allEntries() in declaration order                                │
	│   system ► pods ► containers ► streaming ► logs ► stats ►          │
	│   events ► images ► containerd ► bridge                            │
	│        │                                                           │
	│        ▼  build(Options)                                           │
	│   ┌────────────────────────────────────────────────────────────┐   │
	│   │ drop Disabled names (unknown name is an error)             │   │
	│   │ drop non read-only entries when ReadOnly                   │   │
	│   │ drop the containerd group unless Containerd                │   │
	│   └────────────────────────────┬───────────────────────────────┘   │
	│                                ▼                                   │
	│   ┌────────────────────────────────────────────────────────────┐   │
	│   │ Catalog: ordered entries + name index                      │   │
	│   │   Lookup(name)  Entries()  List()  Len()                   │   │
	│   └────────────────────────────┬───────────────────────────────┘   │
	│                                ▼                                   │
	│   Entry                                                            │
	│   ┌──────────┐ ┌─────────────┐ ┌──────────────────────────────┐   │
	│   │ Args     │ │ Annotations │ │ binding                      │   │
	│   │ schema   │ │ ReadOnly    │ │ encode ► call ► decode       │   │
	│   │          │ │ Destructive │ │ typed by request, response   │   │
	│   │          │ │ Idempotent  │ │                              │   │
	│   │          │ │ LongRunning │ │                              │   │
	│   └──────────┘ └─────────────┘ └──────────────────────────────┘   │
	└────────────────────────────────────────────────────────────────────┘

# Bindings

The binding has three steps:

	arguments ──Validate──► schema.Values ──encode──► request message
	request   ──call─────► response message (CRI, containerd or local)
	response  ──decode───► JSON-ready view

Encode and decode are pure. bind ties the three functions together with the
request and response types as type parameters.

Encode errors are *schema.ValidationError, naming the argument path. Invoke
returns backend errors unchanged for the dispatcher to classify, and wraps a
response that cannot be converted in *DecodeError.

# Views

Views are plain structs with every key always present, so a tool returns the
same field set on every call. Absent values are null, empty maps and lists
are {} and [], and timestamps are RFC 3339 with nanoseconds in UTC. CRI
nanosecond timestamps, protobuf timestamps and wall clock times all render
the same way.

CRI lists keep the order the runtime returned. containerd lists are sorted
by name or ID and list_operations by creation time.

# Tool Groups

	system      version, runtime_status
	pods        list_pods, pod_status, create_pod, stop_pod, remove_pod
	containers  list_containers, container_status, create_container,
	            start_container, stop_container, remove_container,
	            update_container_resources, reopen_container_log
	streaming   exec_sync, exec, attach, port_forward
	logs        container_logs
	stats       container_stats, list_container_stats, pod_stats,
	            list_pod_stats
	events      container_events
	images      list_images, image_status, pull_image, remove_image,
	            image_fs_info
	containerd  containerd_version, list_namespaces, list_tasks,
	            list_containerd_containers, list_containerd_images
	bridge      daemon_logs, list_operations

Tool names are part of the client contract: a rename is a removal plus an
addition.

# Containerd Tools

The containerd group talks to containerd's native services on the runtime
socket. They are read-only and take an optional namespace, falling back to
Services.Namespace and then k8s.io. Results echo the namespace used.
list_containerd_containers and list_containerd_images pass their filter
argument to containerd as a single filter expression.

# Timeouts

An entry may set Timeout to raise the dispatcher's deadline from its own
arguments. stop_container and exec_sync accept a timeout in seconds; it must
be non-negative and small enough that the deadline stays representable, and
anything else fails validation as an argument error.

# Usage

The catalog can be narrowed at build time. ReadOnly keeps only read-only
tools, Disabled drops named tools and containerd native tools are only served
when Containerd is set:

	cat, err := catalog.New(catalog.Options{ReadOnly: true, Containerd: true})
	entry, ok := cat.Lookup("list_containers")
	req, err := entry.Encode(map[string]any{"state": "RUNNING"})
	payload, err := entry.Invoke(ctx, services, req)

# Integration Points

  - pkg/schema supplies argument declarations, validation and JSON Schema
  - pkg/runtime supplies the clients carried in Services
  - pkg/crilog reads the log files behind container_logs and daemon_logs
  - pkg/dispatch drives Encode and Invoke and classifies their errors
  - pkg/bridge advertises List() as MCP tools with their annotations
*/
package catalog
