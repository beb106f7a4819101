package catalog

import (
	"context"

	"github.com/cuemby/cri-mcp/pkg/schema"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// criAPIVersion is the kubelet API version sent with Version
const criAPIVersion = "v1"

func systemEntries() []*Entry {
	return []*Entry{
		{
			Name:        "version",
			Group:       GroupSystem,
			Description: "Report the container runtime name and version and the CRI API version it serves.",
			Args:        schema.NewArgs(),
			Result:      "{version, runtime_name, runtime_version, runtime_api_version}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(schema.Values) (*runtimeapi.VersionRequest, error) {
					return &runtimeapi.VersionRequest{Version: criAPIVersion}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.VersionRequest) (*runtimeapi.VersionResponse, error) {
					return svc.Runtime.Version(ctx, req)
				},
				func(resp *runtimeapi.VersionResponse) (any, error) {
					return versionView{
						Version:           resp.GetVersion(),
						RuntimeName:       resp.GetRuntimeName(),
						RuntimeVersion:    resp.GetRuntimeVersion(),
						RuntimeAPIVersion: resp.GetRuntimeApiVersion(),
					}, nil
				},
			),
		},
		{
			Name:        "runtime_status",
			Group:       GroupSystem,
			Description: "Report runtime readiness conditions (RuntimeReady, NetworkReady). With verbose, include the runtime's extra info map.",
			Args: schema.NewArgs(
				schema.Bool("verbose", "Include runtime specific info").WithDefault(false),
			),
			Result:     "{conditions: [{type, status, reason, message}], info}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.StatusRequest, error) {
					return &runtimeapi.StatusRequest{Verbose: args.Bool("verbose")}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.StatusRequest) (*runtimeapi.StatusResponse, error) {
					return svc.Runtime.Status(ctx, req)
				},
				func(resp *runtimeapi.StatusResponse) (any, error) {
					conditions := []conditionView{}
					for _, c := range resp.GetStatus().GetConditions() {
						conditions = append(conditions, conditionView{
							Type:    c.GetType(),
							Status:  c.GetStatus(),
							Reason:  c.GetReason(),
							Message: c.GetMessage(),
						})
					}
					return runtimeStatusView{Conditions: conditions, Info: emptyMap(resp.GetInfo())}, nil
				},
			),
		},
	}
}
