package image

import (
	"fmt"
	stdimage "image"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// bytesPerPixel is the size of one texel in every supported format.
const bytesPerPixel = 4

// ReadbackDims describes the layout of an image copied into a buffer. Rows in the buffer are
// padded to wgpu.CopyBytesPerRowAlignment.
type ReadbackDims struct {
	Width           uint32
	Height          uint32
	Format          wgpu.TextureFormat
	UnpaddedRowSize uint32
	PaddedRowSize   uint32
}

// NewReadbackDims computes the readback layout of a width x height image.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//   - format: the texel format, used by DecodeRGBA to order channels
//
// Returns:
//   - ReadbackDims: the layout
func NewReadbackDims(width, height uint32, format wgpu.TextureFormat) ReadbackDims {
	unpadded := width * bytesPerPixel
	return ReadbackDims{
		Width:           width,
		Height:          height,
		Format:          format,
		UnpaddedRowSize: unpadded,
		PaddedRowSize:   uint32(common.AlignUp(uint64(unpadded), uint64(wgpu.CopyBytesPerRowAlignment))),
	}
}

// PaddedSize returns the byte size of the buffer a copy needs.
func (d ReadbackDims) PaddedSize() uint64 {
	return uint64(d.PaddedRowSize) * uint64(d.Height)
}

// UnpaddedSize returns the byte size of the tightly packed pixels.
func (d ReadbackDims) UnpaddedSize() uint64 {
	return uint64(d.UnpaddedRowSize) * uint64(d.Height)
}

// HasNoPadding reports whether rows are already aligned.
func (d ReadbackDims) HasNoPadding() bool {
	return d.UnpaddedRowSize == d.PaddedRowSize
}

// DataLayout returns the buffer layout for a texture to buffer copy.
func (d ReadbackDims) DataLayout() wgpu.TextureDataLayout {
	return wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  d.PaddedRowSize,
		RowsPerImage: d.Height,
	}
}

// DecodeRGBA strips the row padding from read back data and returns it as a straight alpha
// RGBA image holding the device bytes unchanged. BGRA formats are swizzled to RGBA.
//
// Parameters:
//   - data: the buffer contents, at least dims.PaddedSize() bytes
//   - dims: the layout the data was copied with
//
// Returns:
//   - *image.NRGBA: the decoded image
//   - error: an error if data is too short or the format is unsupported
func DecodeRGBA(data []byte, dims ReadbackDims) (*stdimage.NRGBA, error) {
	if uint64(len(data)) < dims.PaddedSize() {
		return nil, fmt.Errorf("readback data is %d bytes, need %d", len(data), dims.PaddedSize())
	}

	var swap bool
	switch dims.Format {
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb:
	case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		swap = true
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, dims.Format)
	}

	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, int(dims.Width), int(dims.Height)))
	for y := range int(dims.Height) {
		src := data[y*int(dims.PaddedRowSize) : y*int(dims.PaddedRowSize)+int(dims.UnpaddedRowSize)]
		dst := img.Pix[y*img.Stride : y*img.Stride+int(dims.UnpaddedRowSize)]
		copy(dst, src)
		if swap {
			for x := 0; x < len(dst); x += bytesPerPixel {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img, nil
}
