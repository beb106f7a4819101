package catalog

import (
	"strings"
	"time"

	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

// Result views are plain structs with every key always present, so a given
// tool returns the same field set on every call. Absent optional values are
// JSON null, never omitted.

type versionView struct {
	Version           string `json:"version"`
	RuntimeName       string `json:"runtime_name"`
	RuntimeVersion    string `json:"runtime_version"`
	RuntimeAPIVersion string `json:"runtime_api_version"`
}

type conditionView struct {
	Type    string `json:"type"`
	Status  bool   `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type runtimeStatusView struct {
	Conditions []conditionView    `json:"conditions"`
	Info       map[string]string `json:"info"`
}

type podView struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Namespace      string            `json:"namespace"`
	UID            string            `json:"uid"`
	Attempt        uint32            `json:"attempt"`
	State          string            `json:"state"`
	CreatedAt      string            `json:"created_at"`
	Labels         map[string]string `json:"labels"`
	Annotations    map[string]string `json:"annotations"`
	RuntimeHandler string            `json:"runtime_handler"`
}

type podStatusView struct {
	podView
	IP            string            `json:"ip"`
	AdditionalIPs []string          `json:"additional_ips"`
	Info          map[string]string `json:"info"`
}

type containerView struct {
	ID          string            `json:"id"`
	PodID       string            `json:"pod_id"`
	Name        string            `json:"name"`
	Attempt     uint32            `json:"attempt"`
	Image       string            `json:"image"`
	ImageRef    string            `json:"image_ref"`
	State       string            `json:"state"`
	CreatedAt   string            `json:"created_at"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
}

type mountView struct {
	ContainerPath string `json:"container_path"`
	HostPath      string `json:"host_path"`
	Readonly      bool   `json:"readonly"`
	Propagation   string `json:"propagation"`
}

type containerStatusView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Attempt     uint32            `json:"attempt"`
	State       string            `json:"state"`
	CreatedAt   string            `json:"created_at"`
	StartedAt   string            `json:"started_at"`
	FinishedAt  string            `json:"finished_at"`
	ExitCode    int32             `json:"exit_code"`
	Image       string            `json:"image"`
	ImageRef    string            `json:"image_ref"`
	Reason      string            `json:"reason"`
	Message     string            `json:"message"`
	LogPath     string            `json:"log_path"`
	Mounts      []mountView       `json:"mounts"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	Info        map[string]string `json:"info"`
}

type imageView struct {
	ID          string   `json:"id"`
	RepoTags    []string `json:"repo_tags"`
	RepoDigests []string `json:"repo_digests"`
	Size        uint64   `json:"size"`
	UID         *int64   `json:"uid"`
	Username    string   `json:"username"`
	Pinned      bool     `json:"pinned"`
}

type fsUsageView struct {
	Timestamp  string  `json:"timestamp"`
	Mountpoint string  `json:"mountpoint"`
	UsedBytes  *uint64 `json:"used_bytes"`
	InodesUsed *uint64 `json:"inodes_used"`
}

type cpuView struct {
	Timestamp            string  `json:"timestamp"`
	UsageCoreNanoSeconds *uint64 `json:"usage_core_nano_seconds"`
	UsageNanoCores       *uint64 `json:"usage_nano_cores"`
}

type memoryView struct {
	Timestamp       string  `json:"timestamp"`
	WorkingSetBytes *uint64 `json:"working_set_bytes"`
	AvailableBytes  *uint64 `json:"available_bytes"`
	UsageBytes      *uint64 `json:"usage_bytes"`
	RssBytes        *uint64 `json:"rss_bytes"`
	PageFaults      *uint64 `json:"page_faults"`
	MajorPageFaults *uint64 `json:"major_page_faults"`
}

type containerStatsView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Attempt       uint32            `json:"attempt"`
	Labels        map[string]string `json:"labels"`
	CPU           *cpuView          `json:"cpu"`
	Memory        *memoryView       `json:"memory"`
	WritableLayer *fsUsageView      `json:"writable_layer"`
}

type interfaceView struct {
	Name     string  `json:"name"`
	RxBytes  *uint64 `json:"rx_bytes"`
	RxErrors *uint64 `json:"rx_errors"`
	TxBytes  *uint64 `json:"tx_bytes"`
	TxErrors *uint64 `json:"tx_errors"`
}

type networkView struct {
	Timestamp  string          `json:"timestamp"`
	Default    *interfaceView  `json:"default_interface"`
	Interfaces []interfaceView `json:"interfaces"`
}

type podStatsView struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Namespace    string               `json:"namespace"`
	UID          string               `json:"uid"`
	Labels       map[string]string    `json:"labels"`
	CPU          *cpuView             `json:"cpu"`
	Memory       *memoryView          `json:"memory"`
	Network      *networkView         `json:"network"`
	ProcessCount *uint64              `json:"process_count"`
	Containers   []containerStatsView `json:"containers"`
}

type eventView struct {
	ContainerID string `json:"container_id"`
	Type        string `json:"type"`
	CreatedAt   string `json:"created_at"`
	PodID       string `json:"pod_id"`
}

type logLineView struct {
	Time    string `json:"time"`
	Stream  string `json:"stream"`
	Message string `json:"message"`
}

// timeLayout is used for every timestamp in a result
const timeLayout = time.RFC3339Nano

// formatNanos renders a CRI unix-nanosecond timestamp, empty when unset
func formatNanos(ns int64) string {
	if ns == 0 {
		return ""
	}
	return time.Unix(0, ns).UTC().Format(timeLayout)
}

// formatTime renders a wall clock time, empty when zero
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func u64(v *runtimeapi.UInt64Value) *uint64 {
	if v == nil {
		return nil
	}
	n := v.GetValue()
	return &n
}

func emptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func emptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// enumName trims the CRI enum prefix, e.g. CONTAINER_RUNNING -> RUNNING
func enumName(s, prefix string) string {
	return strings.TrimPrefix(s, prefix)
}

func toPodView(p *runtimeapi.PodSandbox) podView {
	md := p.GetMetadata()
	return podView{
		ID:             p.GetId(),
		Name:           md.GetName(),
		Namespace:      md.GetNamespace(),
		UID:            md.GetUid(),
		Attempt:        md.GetAttempt(),
		State:          enumName(p.GetState().String(), "SANDBOX_"),
		CreatedAt:      formatNanos(p.GetCreatedAt()),
		Labels:         emptyMap(p.GetLabels()),
		Annotations:    emptyMap(p.GetAnnotations()),
		RuntimeHandler: p.GetRuntimeHandler(),
	}
}

func toPodStatusView(s *runtimeapi.PodSandboxStatus, info map[string]string) podStatusView {
	md := s.GetMetadata()
	ips := []string{}
	for _, ip := range s.GetNetwork().GetAdditionalIps() {
		ips = append(ips, ip.GetIp())
	}
	return podStatusView{
		podView: podView{
			ID:             s.GetId(),
			Name:           md.GetName(),
			Namespace:      md.GetNamespace(),
			UID:            md.GetUid(),
			Attempt:        md.GetAttempt(),
			State:          enumName(s.GetState().String(), "SANDBOX_"),
			CreatedAt:      formatNanos(s.GetCreatedAt()),
			Labels:         emptyMap(s.GetLabels()),
			Annotations:    emptyMap(s.GetAnnotations()),
			RuntimeHandler: s.GetRuntimeHandler(),
		},
		IP:            s.GetNetwork().GetIp(),
		AdditionalIPs: ips,
		Info:          emptyMap(info),
	}
}

func toContainerView(c *runtimeapi.Container) containerView {
	return containerView{
		ID:          c.GetId(),
		PodID:       c.GetPodSandboxId(),
		Name:        c.GetMetadata().GetName(),
		Attempt:     c.GetMetadata().GetAttempt(),
		Image:       c.GetImage().GetImage(),
		ImageRef:    c.GetImageRef(),
		State:       enumName(c.GetState().String(), "CONTAINER_"),
		CreatedAt:   formatNanos(c.GetCreatedAt()),
		Labels:      emptyMap(c.GetLabels()),
		Annotations: emptyMap(c.GetAnnotations()),
	}
}

func toContainerStatusView(s *runtimeapi.ContainerStatus, info map[string]string) containerStatusView {
	mounts := []mountView{}
	for _, m := range s.GetMounts() {
		mounts = append(mounts, mountView{
			ContainerPath: m.GetContainerPath(),
			HostPath:      m.GetHostPath(),
			Readonly:      m.GetReadonly(),
			Propagation:   enumName(m.GetPropagation().String(), "PROPAGATION_"),
		})
	}
	return containerStatusView{
		ID:          s.GetId(),
		Name:        s.GetMetadata().GetName(),
		Attempt:     s.GetMetadata().GetAttempt(),
		State:       enumName(s.GetState().String(), "CONTAINER_"),
		CreatedAt:   formatNanos(s.GetCreatedAt()),
		StartedAt:   formatNanos(s.GetStartedAt()),
		FinishedAt:  formatNanos(s.GetFinishedAt()),
		ExitCode:    s.GetExitCode(),
		Image:       s.GetImage().GetImage(),
		ImageRef:    s.GetImageRef(),
		Reason:      s.GetReason(),
		Message:     s.GetMessage(),
		LogPath:     s.GetLogPath(),
		Mounts:      mounts,
		Labels:      emptyMap(s.GetLabels()),
		Annotations: emptyMap(s.GetAnnotations()),
		Info:        emptyMap(info),
	}
}

func toImageView(img *runtimeapi.Image) imageView {
	var uid *int64
	if img.GetUid() != nil {
		v := img.GetUid().GetValue()
		uid = &v
	}
	return imageView{
		ID:          img.GetId(),
		RepoTags:    emptyStrings(img.GetRepoTags()),
		RepoDigests: emptyStrings(img.GetRepoDigests()),
		Size:        img.GetSize(),
		UID:         uid,
		Username:    img.GetUsername(),
		Pinned:      img.GetPinned(),
	}
}

func toFsUsageView(u *runtimeapi.FilesystemUsage) *fsUsageView {
	if u == nil {
		return nil
	}
	return &fsUsageView{
		Timestamp:  formatNanos(u.GetTimestamp()),
		Mountpoint: u.GetFsId().GetMountpoint(),
		UsedBytes:  u64(u.GetUsedBytes()),
		InodesUsed: u64(u.GetInodesUsed()),
	}
}

func toFsUsageViews(usages []*runtimeapi.FilesystemUsage) []fsUsageView {
	out := []fsUsageView{}
	for _, u := range usages {
		if v := toFsUsageView(u); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func toCPUView(c *runtimeapi.CpuUsage) *cpuView {
	if c == nil {
		return nil
	}
	return &cpuView{
		Timestamp:            formatNanos(c.GetTimestamp()),
		UsageCoreNanoSeconds: u64(c.GetUsageCoreNanoSeconds()),
		UsageNanoCores:       u64(c.GetUsageNanoCores()),
	}
}

func toMemoryView(m *runtimeapi.MemoryUsage) *memoryView {
	if m == nil {
		return nil
	}
	return &memoryView{
		Timestamp:       formatNanos(m.GetTimestamp()),
		WorkingSetBytes: u64(m.GetWorkingSetBytes()),
		AvailableBytes:  u64(m.GetAvailableBytes()),
		UsageBytes:      u64(m.GetUsageBytes()),
		RssBytes:        u64(m.GetRssBytes()),
		PageFaults:      u64(m.GetPageFaults()),
		MajorPageFaults: u64(m.GetMajorPageFaults()),
	}
}

func toContainerStatsView(s *runtimeapi.ContainerStats) containerStatsView {
	attrs := s.GetAttributes()
	return containerStatsView{
		ID:            attrs.GetId(),
		Name:          attrs.GetMetadata().GetName(),
		Attempt:       attrs.GetMetadata().GetAttempt(),
		Labels:        emptyMap(attrs.GetLabels()),
		CPU:           toCPUView(s.GetCpu()),
		Memory:        toMemoryView(s.GetMemory()),
		WritableLayer: toFsUsageView(s.GetWritableLayer()),
	}
}

func toInterfaceView(i *runtimeapi.NetworkInterfaceUsage) interfaceView {
	return interfaceView{
		Name:     i.GetName(),
		RxBytes:  u64(i.GetRxBytes()),
		RxErrors: u64(i.GetRxErrors()),
		TxBytes:  u64(i.GetTxBytes()),
		TxErrors: u64(i.GetTxErrors()),
	}
}

func toNetworkView(n *runtimeapi.NetworkUsage) *networkView {
	if n == nil {
		return nil
	}
	v := &networkView{
		Timestamp:  formatNanos(n.GetTimestamp()),
		Interfaces: []interfaceView{},
	}
	if n.GetDefaultInterface() != nil {
		d := toInterfaceView(n.GetDefaultInterface())
		v.Default = &d
	}
	for _, i := range n.GetInterfaces() {
		v.Interfaces = append(v.Interfaces, toInterfaceView(i))
	}
	return v
}

func toPodStatsView(s *runtimeapi.PodSandboxStats) podStatsView {
	attrs := s.GetAttributes()
	linux := s.GetLinux()
	containers := []containerStatsView{}
	for _, c := range linux.GetContainers() {
		containers = append(containers, toContainerStatsView(c))
	}
	return podStatsView{
		ID:           attrs.GetId(),
		Name:         attrs.GetMetadata().GetName(),
		Namespace:    attrs.GetMetadata().GetNamespace(),
		UID:          attrs.GetMetadata().GetUid(),
		Labels:       emptyMap(attrs.GetLabels()),
		CPU:          toCPUView(linux.GetCpu()),
		Memory:       toMemoryView(linux.GetMemory()),
		Network:      toNetworkView(linux.GetNetwork()),
		ProcessCount: u64(linux.GetProcess().GetProcessCount()),
		Containers:   containers,
	}
}
