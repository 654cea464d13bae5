package pipeline

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoComputeShader is returned by Register when the pipeline was built without WithComputeShader.
	ErrNoComputeShader = errors.New("compute shader must be set to create a compute pipeline")
)

// pipeline is the implementation of the Pipeline interface.
// It owns the shader module, bind group layouts, pipeline layout and compute pipeline created by Register.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the label prefix for its GPU objects
	pipelineKey string

	computeShader shader.Shader

	module           *wgpu.ShaderModule
	bindGroupLayouts []*wgpu.BindGroupLayout
	layout           *wgpu.PipelineLayout
	computePipeline  *wgpu.ComputePipeline
}

// Pipeline defines the interface for a compute pipeline built from a single WGSL compute shader.
// A Pipeline is inert until Register creates its GPU objects on a device.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the compute shader the pipeline was built with, or nil.
	//
	// Returns:
	//   - shader.Shader: the compute shader
	Shader() shader.Shader

	// ComputePipeline returns the underlying compute pipeline, or nil before Register.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compute pipeline
	ComputePipeline() *wgpu.ComputePipeline

	// BindGroupLayout returns the layout created for a bind group, or nil if the group is not
	// declared or the pipeline is not registered.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// BindGroupLayoutDescriptor returns the descriptor the shader declares for a bind group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, empty when the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// WorkgroupCount returns the number of workgroups to dispatch so that at least invocations
	// shader invocations run along x.
	//
	// Parameters:
	//   - invocations: the number of elements to cover
	//
	// Returns:
	//   - [3]uint32: the dispatch size as [x, y, z]
	WorkgroupCount(invocations uint32) [3]uint32

	// Register compiles the shader and creates the bind group layouts, pipeline layout and compute
	// pipeline on the device. Registering an already registered pipeline is a no-op.
	//
	// Parameters:
	//   - dev: the device to create the pipeline on
	//
	// Returns:
	//   - error: ErrNoComputeShader or a wgpu creation error
	Register(dev device.Device) error

	// Release releases every GPU object created by Register.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new compute Pipeline with the provided options.
//
// Parameters:
//   - pipelineKey: the unique key of the pipeline
//   - opts: builder options, WithComputeShader is required before Register
//
// Returns:
//   - Pipeline: the unregistered pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.computeShader
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	if p.computeShader == nil {
		return wgpu.BindGroupLayoutDescriptor{}
	}
	return p.computeShader.BindGroupLayoutDescriptor(group)
}

func (p *pipeline) WorkgroupCount(invocations uint32) [3]uint32 {
	size := uint32(1)
	if p.computeShader != nil {
		size = p.computeShader.WorkgroupSize()[0]
	}
	return [3]uint32{common.CeilDiv(invocations, size), 1, 1}
}

func (p *pipeline) Register(dev device.Device) error {
	if p.computeShader == nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, ErrNoComputeShader)
	}
	if p.computePipeline != nil {
		return nil
	}

	if err := p.create(dev.Device()); err != nil {
		p.Release()
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	log.Printf("[Pipeline] registered %s (entry point %s, workgroup size %v)", p.pipelineKey, p.computeShader.EntryPoint(), p.computeShader.WorkgroupSize())
	return nil
}

// create builds the GPU objects in dependency order. Groups the shader skips get an empty layout
// so the pipeline layout has no holes.
func (p *pipeline) create(d *wgpu.Device) error {
	var err error
	p.module, err = d.CreateShaderModule(p.computeShader.Module())
	if err != nil {
		return fmt.Errorf("failed to create shader module: %w", err)
	}

	descriptors := p.computeShader.BindGroupLayoutDescriptors()
	groups := make([]int, 0, len(descriptors))
	for g := range descriptors {
		groups = append(groups, g)
	}
	maxGroup := -1
	if len(groups) > 0 {
		maxGroup = slices.Max(groups)
	}

	p.bindGroupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range p.bindGroupLayouts {
		desc := descriptors[g]
		desc.Label = fmt.Sprintf("%s Group %d", p.pipelineKey, g)
		bgl, bglErr := d.CreateBindGroupLayout(&desc)
		if bglErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, bglErr)
		}
		p.bindGroupLayouts[g] = bgl
	}

	p.layout, err = d.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	p.computePipeline, err = d.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.pipelineKey + " Compute Pipeline",
		Layout: p.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     p.module,
			EntryPoint: p.computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create compute pipeline: %w", err)
	}
	return nil
}

func (p *pipeline) Release() {
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, bgl := range p.bindGroupLayouts {
		if bgl != nil {
			bgl.Release()
		}
	}
	p.bindGroupLayouts = nil
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
