package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/cri-mcp/pkg/runtime"
	"github.com/cuemby/cri-mcp/pkg/schema"
	"github.com/cuemby/cri-mcp/pkg/types"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// Tool groups, in catalog order
const (
	GroupSystem     = "system"
	GroupPods       = "pods"
	GroupContainers = "containers"
	GroupStreaming  = "streaming"
	GroupLogs       = "logs"
	GroupStats      = "stats"
	GroupEvents     = "events"
	GroupImages     = "images"
	GroupContainerd = "containerd"
	GroupBridge     = "bridge"
)

// OperationLister exposes the long-running operations known to the bridge
type OperationLister interface {
	List() []types.Operation
}

// Services are the backends an entry may call
type Services struct {
	Runtime    runtimeapi.RuntimeServiceClient
	Image      runtimeapi.ImageServiceClient
	Containerd runtime.ContainerdServices
	// Namespace is the containerd namespace used when a call names none
	Namespace string
	// DaemonLogPath is the runtime daemon's own log file
	DaemonLogPath string
	Operations    OperationLister
}

// Entry is one tool: its argument schema, its annotations and how a call is
// translated to and from the backend
type Entry struct {
	Name        string
	Group       string
	Description string
	Args        schema.Args
	// Result names the shape of a successful payload
	Result string

	ReadOnly    bool
	Destructive bool
	Idempotent  bool
	LongRunning bool

	// Timeout, when set, returns the backend deadline needed by a call with
	// these arguments. The dispatcher uses it when it exceeds the default.
	Timeout func(args schema.Values) time.Duration

	binding binding
}

// Request is a validated call ready for the backend
type Request struct {
	Args    schema.Values
	message any
}

// Encode validates arguments and builds the backend request. Errors are
// *schema.ValidationError.
func (e *Entry) Encode(arguments map[string]any) (*Request, error) {
	args, err := schema.Validate(e.Args, arguments)
	if err != nil {
		return nil, err
	}
	msg, err := e.binding.encode(args)
	if err != nil {
		return nil, err
	}
	return &Request{Args: args, message: msg}, nil
}

// Invoke performs the backend call and converts the response to a
// JSON-ready payload. Backend errors are returned unchanged; a response that
// cannot be converted is wrapped in *DecodeError.
func (e *Entry) Invoke(ctx context.Context, svc *Services, req *Request) (any, error) {
	resp, err := e.binding.invoke(ctx, svc, req.message)
	if err != nil {
		return nil, err
	}
	payload, err := e.binding.decode(resp)
	if err != nil {
		return nil, &DecodeError{Tool: e.Name, Err: err}
	}
	return payload, nil
}

// Descriptor renders the entry as an advertised tool
func (e *Entry) Descriptor() types.ToolDescriptor {
	return types.ToolDescriptor{
		Name:           e.Name,
		Description:    e.Description,
		Group:          e.Group,
		ArgumentSchema: e.Args.JSONSchema(),
		ResultShape:    e.Result,
		Annotations: types.ToolAnnotations{
			ReadOnly:    e.ReadOnly,
			Destructive: e.Destructive,
			Idempotent:  e.Idempotent,
			LongRunning: e.LongRunning,
		},
	}
}

// DecodeError reports a backend response the bridge could not convert
type DecodeError struct {
	Tool string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Tool, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Options select which entries a catalog serves
type Options struct {
	// ReadOnly drops every entry that is not read-only
	ReadOnly bool
	// Disabled names tools to leave out
	Disabled []string
	// Containerd includes containerd native tools
	Containerd bool
}

// Catalog is the fixed, ordered set of tools. It is built once and never
// modified, so it is safe for concurrent use.
type Catalog struct {
	entries []*Entry
	index   map[string]*Entry
}

// New builds the catalog. Disabling a tool that does not exist is an error.
func New(opts Options) (*Catalog, error) {
	return build(allEntries(), opts)
}

func build(all []*Entry, opts Options) (*Catalog, error) {
	known := make(map[string]bool, len(all))
	for _, e := range all {
		if known[e.Name] {
			return nil, fmt.Errorf("duplicate tool %q", e.Name)
		}
		known[e.Name] = true
	}

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		if !known[name] {
			return nil, fmt.Errorf("cannot disable unknown tool %q", name)
		}
		disabled[name] = true
	}

	c := &Catalog{index: make(map[string]*Entry, len(all))}
	for _, e := range all {
		switch {
		case disabled[e.Name]:
			continue
		case opts.ReadOnly && !e.ReadOnly:
			continue
		case !opts.Containerd && e.Group == GroupContainerd:
			continue
		}
		c.entries = append(c.entries, e)
		c.index[e.Name] = e
	}
	return c, nil
}

// Lookup finds an entry by exact name
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	e, ok := c.index[name]
	return e, ok
}

// Entries returns the entries in declaration order
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// List returns the tool descriptors in declaration order
func (c *Catalog) List() []types.ToolDescriptor {
	out := make([]types.ToolDescriptor, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Descriptor())
	}
	return out
}

// Len returns the number of tools served
func (c *Catalog) Len() int {
	return len(c.entries)
}

func allEntries() []*Entry {
	var all []*Entry
	for _, group := range [][]*Entry{
		systemEntries(),
		podEntries(),
		containerEntries(),
		streamingEntries(),
		logEntries(),
		statsEntries(),
		eventEntries(),
		imageEntries(),
		containerdEntries(),
		bridgeEntries(),
	} {
		all = append(all, group...)
	}
	return all
}
