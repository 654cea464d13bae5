package tutorial

import (
	_ "embed"
	"image/color"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// MultiplyShaderSource is the compute shader that multiplies every element of a u32 storage array.
//
//go:embed shaders/multiply.wgsl
var MultiplyShaderSource string

const (
	// CopyElements is the number of u32 values copied buffer to buffer.
	CopyElements = 64

	// ComputeElements is the number of u32 values the multiply shader runs over.
	ComputeElements = 65536

	// MultiplyFactor is the constant every element is multiplied by.
	MultiplyFactor = 12

	// ImageWidth and ImageHeight are the dimensions of the cleared image.
	ImageWidth  = 1024
	ImageHeight = 1024

	// DefaultImagePath is where StepImage writes the cleared image.
	DefaultImagePath = "image.png"
)

var (
	// InitialDataPair is written to the host-visible buffer before it is mutated.
	InitialDataPair = common.DataPair{A: 5, B: 69}

	// ExpectedDataPair is InitialDataPair after the in-place mutation.
	ExpectedDataPair = common.DataPair{A: 10, B: 9}

	// ClearColor is the color the image is cleared to.
	ClearColor = wgpu.Color{R: 0.1, G: 0.6, B: 0.7, A: 0.7}
)

// Step is one stage of the walkthrough.
type Step int

const (
	// StepDataPair writes a DataPair to a host-visible buffer, mutates it in place and reads it back.
	StepDataPair Step = iota

	// StepCopy copies 64 u32 values between buffers on the device.
	StepCopy

	// StepCompute runs the multiply shader over 65536 u32 values.
	StepCompute

	// StepImage clears an image, reads it back and writes it to disk.
	StepImage
)

// AllSteps lists every step in execution order.
var AllSteps = []Step{StepDataPair, StepCopy, StepCompute, StepImage}

// String returns the step name used in log and profiler output.
func (s Step) String() string {
	switch s {
	case StepDataPair:
		return "data pair"
	case StepCopy:
		return "buffer copy"
	case StepCompute:
		return "compute multiply"
	case StepImage:
		return "image clear"
	default:
		return "unknown"
	}
}

// clearPixel returns the straight alpha 8 bit pixel a wgpu clear color reads back as.
func clearPixel(c wgpu.Color) color.NRGBA {
	return color.NRGBA{
		R: unorm8(c.R),
		G: unorm8(c.G),
		B: unorm8(c.B),
		A: unorm8(c.A),
	}
}

func unorm8(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// sequence returns the values 0..n-1.
func sequence(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
