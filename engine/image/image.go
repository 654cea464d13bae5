package image

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-compute/engine/buffer"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrInvalidDimensions is returned when an image is created with a zero width or height.
	ErrInvalidDimensions = errors.New("image dimensions must be non-zero")

	// ErrUnsupportedFormat is returned for texture formats and file extensions the package cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// supportedFormats are the 4 byte per pixel color formats an image can be created with and decoded from.
var supportedFormats = []wgpu.TextureFormat{
	wgpu.TextureFormatRGBA8Unorm,
	wgpu.TextureFormatRGBA8UnormSrgb,
	wgpu.TextureFormatBGRA8Unorm,
	wgpu.TextureFormatBGRA8UnormSrgb,
}

// image is the implementation of the Image interface.
type image struct {
	mu *sync.Mutex

	label  string
	width  uint32
	height uint32
	format wgpu.TextureFormat

	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// Image is a device-local 2D color image that can be rendered to and copied out of.
type Image interface {
	// Label returns the debug label of the image.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Width returns the width of the image in pixels.
	//
	// Returns:
	//   - uint32: the width
	Width() uint32

	// Height returns the height of the image in pixels.
	//
	// Returns:
	//   - uint32: the height
	Height() uint32

	// Format returns the texel format of the image.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	Format() wgpu.TextureFormat

	// Extent returns the size of the image as a single layer extent.
	//
	// Returns:
	//   - wgpu.Extent3D: the extent used for copies
	Extent() wgpu.Extent3D

	// Texture returns the underlying texture, or nil after Release.
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	Texture() *wgpu.Texture

	// View returns the default view used as a render attachment, or nil after Release.
	//
	// Returns:
	//   - *wgpu.TextureView: the view
	View() *wgpu.TextureView

	// ReadbackDims returns the buffer layout needed to copy the image to a host buffer.
	//
	// Returns:
	//   - ReadbackDims: the padded and unpadded row sizes
	ReadbackDims() ReadbackDims

	// NewReadbackBuffer creates a host-readable buffer large enough for CopyImageToBuffer.
	//
	// Parameters:
	//   - dev: the device to create the buffer on
	//
	// Returns:
	//   - buffer.Buffer: a buffer with HostAccessRead sized to the padded layout
	//   - error: an error if the buffer could not be created
	NewReadbackBuffer(dev device.Device) (buffer.Buffer, error)

	// Release releases the view and texture. It is safe to call more than once.
	Release()
}

var _ Image = &image{}

// NewImage creates a device-local image usable as a render attachment and copy source.
//
// Parameters:
//   - dev: the device to create the texture on
//   - width: the width in pixels
//   - height: the height in pixels
//   - options: builder options, see WithLabel and WithFormat
//
// Returns:
//   - Image: the created image
//   - error: ErrInvalidDimensions, ErrUnsupportedFormat or a wgpu creation error
func NewImage(dev device.Device, width, height uint32, options ...ImageBuilderOption) (Image, error) {
	img := &image{
		mu:     &sync.Mutex{},
		label:  "Image",
		width:  width,
		height: height,
		format: wgpu.TextureFormatRGBA8Unorm,
	}
	for _, opt := range options {
		opt(img)
	}

	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%s: %w (%dx%d)", img.label, ErrInvalidDimensions, width, height)
	}
	if !slices.Contains(supportedFormats, img.format) {
		return nil, fmt.Errorf("%s: %w: %v", img.label, ErrUnsupportedFormat, img.format)
	}

	tex, err := dev.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label:         img.label,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
		Dimension:     wgpu.TextureDimension2D,
		Size:          img.Extent(),
		Format:        img.format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create texture: %w", img.label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("%s: failed to create texture view: %w", img.label, err)
	}
	img.texture = tex
	img.view = view
	return img, nil
}

func (i *image) Label() string {
	return i.label
}

func (i *image) Width() uint32 {
	return i.width
}

func (i *image) Height() uint32 {
	return i.height
}

func (i *image) Format() wgpu.TextureFormat {
	return i.format
}

func (i *image) Extent() wgpu.Extent3D {
	return wgpu.Extent3D{
		Width:              i.width,
		Height:             i.height,
		DepthOrArrayLayers: 1,
	}
}

func (i *image) Texture() *wgpu.Texture {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.texture
}

func (i *image) View() *wgpu.TextureView {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.view
}

func (i *image) ReadbackDims() ReadbackDims {
	return NewReadbackDims(i.width, i.height, i.format)
}

func (i *image) NewReadbackBuffer(dev device.Device) (buffer.Buffer, error) {
	return buffer.NewBuffer(dev, i.ReadbackDims().PaddedSize(),
		buffer.WithLabel(i.label+" Readback"),
		buffer.WithHostAccess(buffer.HostAccessRead),
	)
}

func (i *image) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.view != nil {
		i.view.Release()
		i.view = nil
	}
	if i.texture != nil {
		i.texture.Release()
		i.texture = nil
	}
}
