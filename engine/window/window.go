package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a desktop window a device surface can present into.
// Escape always closes it.
type Window interface {
	// Title returns the window title.
	//
	// Returns:
	//   - string: the title
	Title() string

	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for creating a surface on this window,
	// built by the wgpuglfw bridge for the current platform.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still open.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close destroys the window. Closing twice returns ErrNotOpen.
	//
	// Returns:
	//   - error: ErrNotOpen if the window is not open
	Close() error

	// ProcessMessages runs the message loop until the window is closed, calling the update
	// callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds the window configuration and the open GLFW window.
type engineWindow struct {
	title string

	// size limits applied while resizing
	maxWidth, maxHeight int
	minWidth, minHeight int

	// current framebuffer size in pixels
	width, height int

	// nil until the window is opened and after it is closed
	internalWindow *glfwWindow

	onUpdate func()
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window with the specified options.
// Must be called from the main goroutine; the calling goroutine is locked to its OS thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

// newEngineWindow applies the defaults and options without touching the platform.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "Oxy Compute",
		maxWidth:  1600,
		maxHeight: 1200,
		minWidth:  200,
		minHeight: 200,
		width:     1024,
		height:    1024,
	}
	for _, opt := range options {
		opt(w)
	}
	w.width = min(max(w.width, w.minWidth), w.maxWidth)
	w.height = min(max(w.height, w.minHeight), w.maxHeight)
	return w
}

func (w *engineWindow) Title() string {
	return w.title
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records a framebuffer resize and forwards it to the resize callback.
// Minimized windows report 0x0 and are ignored.
func (w *engineWindow) resized(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
