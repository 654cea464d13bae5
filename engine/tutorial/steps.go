package tutorial

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/Carmen-Shannon/oxy-compute/engine/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-compute/engine/buffer"
	"github.com/Carmen-Shannon/oxy-compute/engine/command"
	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/image"
	"github.com/Carmen-Shannon/oxy-compute/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-compute/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// RunDataPair writes InitialDataPair into a host-visible buffer, doubles A and sets B to 9 while
// the buffer is mapped, copies it to a readback buffer and reads it back.
//
// Parameters:
//   - dev: the device to run on
//
// Returns:
//   - common.DataPair: the pair read back from the device
//   - error: an allocation, map or submission error, or an error if the pair is not ExpectedDataPair
func RunDataPair(dev device.Device) (common.DataPair, error) {
	staging, err := buffer.NewBuffer(dev, 0,
		buffer.WithLabel("Data Pair Staging"),
		buffer.WithContents(InitialDataPair.Bytes()),
		buffer.WithHostAccess(buffer.HostAccessWrite),
	)
	if err != nil {
		return common.DataPair{}, err
	}
	defer staging.Release()
	log.Printf("[Tutorial] wrote %s", InitialDataPair)

	var mutateErr error
	err = staging.Update(func(mapped []byte) {
		pair, err := common.DataPairFromBytes(mapped)
		if err != nil {
			mutateErr = err
			return
		}
		pair.A *= 2
		pair.B = 9
		pair.Put(mapped)
	})
	if err != nil {
		return common.DataPair{}, err
	}
	if mutateErr != nil {
		return common.DataPair{}, mutateErr
	}

	readback, err := buffer.NewBuffer(dev, common.DataPairSize,
		buffer.WithLabel("Data Pair Readback"),
		buffer.WithHostAccess(buffer.HostAccessRead),
	)
	if err != nil {
		return common.DataPair{}, err
	}
	defer readback.Release()

	if err := copyAndWait(dev, "Data Pair Copy", staging, readback, common.DataPairSize); err != nil {
		return common.DataPair{}, err
	}
	data, err := readback.Read()
	if err != nil {
		return common.DataPair{}, err
	}
	pair, err := common.DataPairFromBytes(data)
	if err != nil {
		return common.DataPair{}, err
	}
	log.Printf("[Tutorial] read back %s", pair)

	if pair != ExpectedDataPair {
		return pair, fmt.Errorf("data pair: want %s, got %s", ExpectedDataPair, pair)
	}
	return pair, nil
}

// RunCopy uploads the values 0..63 into a source buffer, copies them into a zeroed destination on
// the device and verifies the destination byte for byte.
//
// Parameters:
//   - dev: the device to run on
//   - v: the verifier used to compare the readback
//
// Returns:
//   - []uint32: the values read back from the destination
//   - error: an allocation, map or submission error, or a *MismatchError
func RunCopy(dev device.Device, v *Verifier) ([]uint32, error) {
	src := sequence(CopyElements)
	size := uint64(len(src) * 4)

	srcBuf, err := buffer.NewBuffer(dev, size,
		buffer.WithLabel("Copy Source"),
		buffer.WithContents(common.SliceToBytes(src)),
		buffer.WithHostAccess(buffer.HostAccessWrite),
	)
	if err != nil {
		return nil, err
	}
	defer srcBuf.Release()

	dstBuf, err := buffer.NewBuffer(dev, size,
		buffer.WithLabel("Copy Destination"),
		buffer.WithHostAccess(buffer.HostAccessRead),
	)
	if err != nil {
		return nil, err
	}
	defer dstBuf.Release()

	if err := copyAndWait(dev, "Buffer Copy", srcBuf, dstBuf, size); err != nil {
		return nil, err
	}
	data, err := dstBuf.Read()
	if err != nil {
		return nil, err
	}
	dst := common.BytesToSlice[uint32](data)
	if err := v.VerifyCopy(src, dst); err != nil {
		return dst, err
	}
	log.Printf("[Tutorial] copied %d values", len(dst))
	return dst, nil
}

// RunCompute uploads the values 0..65535 into a storage buffer, multiplies every element by
// MultiplyFactor with the multiply shader and verifies the result.
//
// Parameters:
//   - dev: the device to run on
//   - v: the verifier used to compare the readback
//
// Returns:
//   - []uint32: the values read back after the compute pass
//   - error: a shader, pipeline, allocation or submission error, or a *MismatchError
func RunCompute(dev device.Device, v *Verifier) ([]uint32, error) {
	in := sequence(ComputeElements)
	size := uint64(len(in) * 4)

	computeShader, err := shader.NewShader("multiply", shader.ShaderTypeCompute, shader.WithSource(MultiplyShaderSource))
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("multiply", pipeline.WithComputeShader(computeShader))
	if err := p.Register(dev); err != nil {
		return nil, err
	}
	defer p.Release()
	log.Printf("[Tutorial] compiled %s (workgroup %v)", p.PipelineKey(), computeShader.WorkgroupSize())

	data, err := buffer.NewBuffer(dev, size,
		buffer.WithLabel("Multiply Data"),
		buffer.WithUsage(wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		return nil, err
	}
	defer data.Release()

	params := common.MultiplyParams{Factor: MultiplyFactor, Count: uint32(len(in))}
	paramBytes := common.StructToBytes(&params)
	uniform, err := buffer.NewBuffer(dev, uint64(len(paramBytes)),
		buffer.WithLabel("Multiply Params"),
		buffer.WithUsage(wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		return nil, err
	}
	defer uniform.Release()

	readback, err := buffer.NewBuffer(dev, size,
		buffer.WithLabel("Multiply Readback"),
		buffer.WithHostAccess(buffer.HostAccessRead),
	)
	if err != nil {
		return nil, err
	}
	defer readback.Release()

	dataBinding := computeBinding(computeShader, "data", 0)
	paramsBinding := computeBinding(computeShader, "params", 1)
	provider := bind_group_provider.NewBindGroupProvider("Multiply",
		bind_group_provider.WithBuffer(dataBinding, data),
		bind_group_provider.WithBuffer(paramsBinding, uniform),
	)
	// Queue writes land before the dispatch submitted below.
	err = bind_group_provider.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: provider, Binding: dataBinding, Data: common.SliceToBytes(in)},
		{Provider: provider, Binding: paramsBinding, Data: paramBytes},
	})
	if err != nil {
		return nil, err
	}
	if err := provider.InitBindGroup(dev, p.BindGroupLayout(0), p.BindGroupLayoutDescriptor(0)); err != nil {
		return nil, err
	}
	defer provider.Release()

	cb, err := command.NewCommandBuffer(dev, "Multiply")
	if err != nil {
		return nil, err
	}
	defer cb.Release()
	groups := p.WorkgroupCount(uint32(len(in)))
	if err := cb.Dispatch(p, provider, groups); err != nil {
		return nil, err
	}
	if err := cb.CopyBuffer(data, readback, size); err != nil {
		return nil, err
	}
	if err := command.SubmitAndWait(cb); err != nil {
		return nil, err
	}

	raw, err := readback.Read()
	if err != nil {
		return nil, err
	}
	out := common.BytesToSlice[uint32](raw)
	if err := v.VerifyMultiply(in, out, MultiplyFactor); err != nil {
		return out, err
	}
	log.Printf("[Tutorial] multiplied %d values by %d in %v workgroups", len(out), MultiplyFactor, groups)
	return out, nil
}

// RunImage clears a 1024x1024 image to ClearColor, copies it into a readback buffer, verifies
// every pixel and writes the result to path.
//
// Parameters:
//   - dev: the device to run on
//   - v: the verifier used to compare the readback
//   - path: the output file; the extension selects the encoder
//
// Returns:
//   - error: an allocation, submission, decode or save error, or a *MismatchError
func RunImage(dev device.Device, v *Verifier, path string) error {
	img, err := image.NewImage(dev, ImageWidth, ImageHeight, image.WithLabel("Clear Target"))
	if err != nil {
		return err
	}
	defer img.Release()

	readback, err := img.NewReadbackBuffer(dev)
	if err != nil {
		return err
	}
	defer readback.Release()

	cb, err := command.NewCommandBuffer(dev, "Image Clear")
	if err != nil {
		return err
	}
	defer cb.Release()
	if err := cb.ClearImage(img, ClearColor); err != nil {
		return err
	}
	if err := cb.CopyImageToBuffer(img, readback); err != nil {
		return err
	}
	if err := command.SubmitAndWait(cb); err != nil {
		return err
	}

	data, err := readback.Read()
	if err != nil {
		return err
	}
	rgba, err := image.DecodeRGBA(data, img.ReadbackDims())
	if err != nil {
		return err
	}
	if err := v.VerifyImage(rgba, clearPixel(ClearColor)); err != nil {
		return err
	}
	if err := image.Save(path, rgba); err != nil {
		return err
	}
	log.Printf("[Tutorial] saved %dx%d image to %s", ImageWidth, ImageHeight, path)
	return nil
}

// copyAndWait records a single buffer copy and blocks until the device finished it.
func copyAndWait(dev device.Device, label string, src, dst buffer.Buffer, size uint64) error {
	cb, err := command.NewCommandBuffer(dev, label)
	if err != nil {
		return err
	}
	defer cb.Release()
	if err := cb.CopyBuffer(src, dst, size); err != nil {
		return err
	}
	return command.SubmitAndWait(cb)
}

// computeBinding looks up the binding of a group 0 variable by name, falling back to fallback when
// the shader does not declare it.
func computeBinding(s shader.Shader, varName string, fallback int) int {
	if binding, ok := s.BindGroupFromVarName(0, varName); ok {
		return binding
	}
	return fallback
}
