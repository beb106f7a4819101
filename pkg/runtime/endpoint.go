package runtime

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultSocketPath is the default containerd socket
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// DefaultEndpoint is DefaultSocketPath in endpoint form
	DefaultEndpoint = "unix://" + DefaultSocketPath
)

// ParseEndpoint turns a CRI endpoint into a gRPC dial target.
//
//	unix:///run/containerd/containerd.sock -> unix:///run/containerd/containerd.sock
//	/run/crio/crio.sock                    -> unix:///run/crio/crio.sock
//	tcp://127.0.0.1:10010                  -> dns:///127.0.0.1:10010
func ParseEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return DefaultEndpoint, nil
	}

	switch {
	case strings.HasPrefix(endpoint, "unix://"):
		path := strings.TrimPrefix(endpoint, "unix://")
		if !filepath.IsAbs(path) {
			return "", fmt.Errorf("invalid endpoint %q: unix socket path must be absolute", endpoint)
		}
		return "unix://" + filepath.Clean(path), nil

	case strings.HasPrefix(endpoint, "tcp://"):
		addr := strings.TrimPrefix(endpoint, "tcp://")
		if addr == "" || !strings.Contains(addr, ":") {
			return "", fmt.Errorf("invalid endpoint %q: tcp endpoint needs host:port", endpoint)
		}
		return "dns:///" + addr, nil

	case filepath.IsAbs(endpoint):
		return "unix://" + filepath.Clean(endpoint), nil
	}

	if i := strings.Index(endpoint, "://"); i > 0 {
		return "", fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, endpoint[:i])
	}
	return "", fmt.Errorf("invalid endpoint %q: expected unix://, tcp:// or an absolute socket path", endpoint)
}
