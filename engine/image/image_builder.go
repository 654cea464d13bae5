package image

import "github.com/cogentcore/webgpu/wgpu"

// ImageBuilderOption is a functional option used to configure an Image during construction.
type ImageBuilderOption func(*image)

// WithLabel sets the debug label of the image. Empty labels are ignored.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - ImageBuilderOption: a function that sets the label
func WithLabel(label string) ImageBuilderOption {
	return func(i *image) {
		if label != "" {
			i.label = label
		}
	}
}

// WithFormat sets the texel format of the image. Only 8 bit RGBA and BGRA formats are accepted.
//
// Parameters:
//   - format: the texture format
//
// Returns:
//   - ImageBuilderOption: a function that sets the format
func WithFormat(format wgpu.TextureFormat) ImageBuilderOption {
	return func(i *image) {
		i.format = format
	}
}
