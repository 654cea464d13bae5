package buffer

import "github.com/cogentcore/webgpu/wgpu"

// HostAccess controls whether, and in which direction, the host may map a buffer's memory.
// WebGPU only allows mappable buffers to pair MapRead with CopyDst and MapWrite with CopySrc,
// so the access mode also fixes which side of a device copy the buffer can be on.
type HostAccess int

const (
	// HostAccessNone creates a device-local buffer the host never maps.
	HostAccessNone HostAccess = iota

	// HostAccessRead creates a host-visible buffer the device copies into and the host reads back.
	HostAccessRead

	// HostAccessWrite creates a host-visible buffer the host writes into and the device copies from.
	HostAccessWrite
)

// usage returns the buffer usage flags implied by the access mode.
func (a HostAccess) usage() wgpu.BufferUsage {
	switch a {
	case HostAccessRead:
		return wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
	case HostAccessWrite:
		return wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc
	default:
		return 0
	}
}

// String returns the access mode name.
func (a HostAccess) String() string {
	switch a {
	case HostAccessRead:
		return "read"
	case HostAccessWrite:
		return "write"
	default:
		return "none"
	}
}
