package common

import (
	_ "embed"
)

// GPUMultiplyParamsSource is the WGSL definition matching the MultiplyParams layout.
//
//go:embed assets/multiply_params.wgsl
var GPUMultiplyParamsSource string

// MultiplyParams is the uniform block read by the multiply compute shader.
// Field order and sizes mirror the WGSL MultiplyParams struct exactly (8 bytes, no padding).
type MultiplyParams struct {
	// Factor is the constant every element is multiplied by.
	Factor uint32
	// Count is the number of valid elements; invocations past it do nothing.
	Count uint32
}
