package device

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoAdapter is returned when no GPU adapter matches the requested options.
var ErrNoAdapter = errors.New("no suitable GPU adapter found")

// AdapterInfo describes the physical adapter a Device was opened on.
type AdapterInfo struct {
	// Name is the human readable adapter name reported by the driver.
	Name string
	// VendorID is the PCI vendor id, 0 when the backend does not report one.
	VendorID uint32
	// DeviceID is the PCI device id, 0 when the backend does not report one.
	DeviceID uint32
	// AdapterType is the adapter category (discrete, integrated, cpu, ...).
	AdapterType string
	// Backend is the native API the adapter runs on (Vulkan, Metal, DX12, ...).
	Backend string
	// Driver is the driver description string, may be empty.
	Driver string
}

// String formats the adapter info for log output.
func (i AdapterInfo) String() string {
	s := fmt.Sprintf("%s (type: %s, backend: %s, vendor: 0x%04x, device: 0x%04x)",
		i.Name, i.AdapterType, i.Backend, i.VendorID, i.DeviceID)
	if i.Driver != "" {
		s += " driver: " + i.Driver
	}
	return s
}

// device is the implementation of the Device interface.
type device struct {
	mu *sync.Mutex

	label string

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	info AdapterInfo

	// Pre-creation config collected from builder options
	powerPreference      wgpu.PowerPreference
	forceFallbackAdapter bool
	surfaceDescriptor    *wgpu.SurfaceDescriptor

	released bool
}

// Device owns the selected GPU adapter, the logical device opened on it and its submission queue.
// Every other engine package allocates resources and submits work through a Device.
type Device interface {
	// Label returns the debug label the logical device was created with.
	//
	// Returns:
	//   - string: the device label
	Label() string

	// Info returns the description of the selected adapter.
	//
	// Returns:
	//   - AdapterInfo: the adapter name, ids, type and backend
	Info() AdapterInfo

	// Instance returns the WebGPU instance the adapter was requested from.
	//
	// Returns:
	//   - *wgpu.Instance: the instance handle
	Instance() *wgpu.Instance

	// Adapter returns the selected physical adapter.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter handle
	Adapter() *wgpu.Adapter

	// Device returns the logical device.
	//
	// Returns:
	//   - *wgpu.Device: the device handle
	Device() *wgpu.Device

	// Queue returns the device's submission queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue handle
	Queue() *wgpu.Queue

	// Surface returns the presentation surface created from WithCompatibleSurface, or nil for headless devices.
	//
	// Returns:
	//   - *wgpu.Surface: the surface handle or nil
	Surface() *wgpu.Surface

	// WaitIdle blocks the calling goroutine until every piece of work submitted to the queue has completed.
	// There is no timeout.
	WaitIdle()

	// Release frees the queue, device, surface, adapter and instance in reverse creation order.
	// Safe to call more than once.
	Release()
}

var _ Device = &device{}

// NewDevice selects a GPU adapter, opens a logical device on it and fetches its queue.
// The selected adapter is logged once.
//
// Parameters:
//   - options: functional options for adapter selection and labelling
//
// Returns:
//   - Device: the opened device
//   - error: ErrNoAdapter if no adapter matched, or the wrapped device request error
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	// wgpu-native expects all calls for a device from the thread that created it.
	runtime.LockOSThread()

	d := &device{
		mu:              &sync.Mutex{},
		label:           "Main Device",
		powerPreference: wgpu.PowerPreferenceHighPerformance,
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(d.surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      d.powerPreference,
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil || a == nil {
		d.Release()
		if err == nil {
			return nil, ErrNoAdapter
		}
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	d.adapter = a
	d.info = adapterInfo(a)

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request device on %s: %w", d.info.Name, err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	log.Printf("[Device] selected %s", d.info)

	return d, nil
}

// adapterInfo converts the adapter's reported info into an AdapterInfo.
func adapterInfo(a *wgpu.Adapter) AdapterInfo {
	info := a.GetInfo()
	return AdapterInfo{
		Name:        info.Name,
		VendorID:    info.VendorId,
		DeviceID:    info.DeviceId,
		AdapterType: fmt.Sprint(info.AdapterType),
		Backend:     fmt.Sprint(info.BackendType),
		Driver:      info.DriverDescription,
	}
}

func (d *device) Label() string {
	return d.label
}

func (d *device) Info() AdapterInfo {
	return d.info
}

func (d *device) Instance() *wgpu.Instance {
	return d.instance
}

func (d *device) Adapter() *wgpu.Adapter {
	return d.adapter
}

func (d *device) Device() *wgpu.Device {
	return d.device
}

func (d *device) Queue() *wgpu.Queue {
	return d.queue
}

func (d *device) Surface() *wgpu.Surface {
	return d.surface
}

func (d *device) WaitIdle() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return
	}
	d.device.Poll(true, nil)
}

func (d *device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return
	}
	d.released = true

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
