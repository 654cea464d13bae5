package preview

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-compute/engine/command"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/profiler"
	"github.com/Carmen-Shannon/oxy-compute/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface is returned when the device was created without WithCompatibleSurface.
var ErrNoSurface = errors.New("device has no surface; create it with device.WithCompatibleSurface")

// DefaultClearColor is opaque blue.
var DefaultClearColor = wgpu.Color{R: 0, G: 0, B: 1, A: 1}

// preview is the implementation of the Preview interface.
type preview struct {
	mu *sync.Mutex

	win window.Window
	dev device.Device

	format      wgpu.TextureFormat
	presentMode PresentMode
	clearColor  wgpu.Color
	profiler    *profiler.Profiler

	configure     func(width, height uint32)
	width, height uint32
	frames        uint64
	err           error
}

// Preview presents a cleared surface in a window each frame.
type Preview interface {
	// Run drives the window's message loop, presenting one frame per iteration until the window
	// is closed or a frame fails.
	//
	// Returns:
	//   - error: the first frame error, or nil when the window was closed
	Run() error

	// Frame acquires the next surface texture, clears it and presents it.
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired or the clear failed
	Frame() error

	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// Frames returns the number of presented frames.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64
}

var _ Preview = &preview{}

// NewPreview configures the device surface for the window.
//
// Parameters:
//   - win: the window to present into
//   - dev: a device created with device.WithCompatibleSurface(win.SurfaceDescriptor())
//   - options: builder options, see WithClearColor, WithPresentMode and WithProfiler
//
// Returns:
//   - Preview: the configured preview
//   - error: ErrNoSurface or an error if the surface reports no formats
func NewPreview(win window.Window, dev device.Device, options ...PreviewBuilderOption) (Preview, error) {
	p := &preview{
		mu:          &sync.Mutex{},
		win:         win,
		dev:         dev,
		presentMode: PresentModeVSync,
		clearColor:  DefaultClearColor,
	}
	for _, opt := range options {
		opt(p)
	}

	surface := dev.Surface()
	if surface == nil {
		return nil, ErrNoSurface
	}
	capabilities := surface.GetCapabilities(dev.Adapter())
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return nil, errors.New("surface reports no supported formats")
	}
	p.format = pickFormat(capabilities.Formats)
	alphaMode := capabilities.AlphaModes[0]
	presentMode := p.presentMode.surfacePresentMode()
	if !slices.Contains(capabilities.PresentModes, presentMode) {
		presentMode = wgpu.PresentModeFifo
	}

	p.width, p.height = uint32(win.Width()), uint32(win.Height())
	p.configure = func(width, height uint32) {
		surface.Configure(dev.Adapter(), dev.Device(), &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      p.format,
			Width:       width,
			Height:      height,
			PresentMode: presentMode,
			AlphaMode:   alphaMode,
		})
	}
	p.configure(p.width, p.height)
	win.SetResizeCallback(p.Resize)

	log.Printf("[Preview] surface %dx%d, format %v, present mode %s", p.width, p.height, p.format, p.presentMode)
	return p, nil
}

// pickFormat prefers a non-sRGB 8 bit format so the clear color is presented unconverted,
// falling back to the surface's preferred format.
func pickFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm} {
		if slices.Contains(formats, f) {
			return f
		}
	}
	return formats[0]
}

func (p *preview) Run() error {
	p.win.SetUpdateCallback(func() {
		if err := p.Frame(); err != nil {
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			log.Printf("[Preview] frame failed: %v", err)
			_ = p.win.Close()
			return
		}
		p.profiler.Tick()
	})
	p.win.ProcessMessages()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *preview) Frame() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	surface := p.dev.Surface()
	surfaceTexture, err := surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create surface view: %w", err)
	}
	defer view.Release()

	cb, err := command.NewCommandBuffer(p.dev, "Preview Frame")
	if err != nil {
		return err
	}
	defer cb.Release()
	if err := cb.ClearView(view, p.clearColor); err != nil {
		return err
	}
	if _, err := cb.Submit(); err != nil {
		return err
	}

	surface.Present()
	p.frames++
	return nil
}

func (p *preview) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.width, p.height = uint32(width), uint32(height)
	p.configure(p.width, p.height)
}

func (p *preview) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
