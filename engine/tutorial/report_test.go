package tutorial

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/Carmen-Shannon/oxy-compute/engine/profiler"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() Result {
	return Result{
		Adapter:    device.AdapterInfo{Name: "llvmpipe", Backend: "Vulkan"},
		DataPair:   ExpectedDataPair,
		Copied:     sequence(CopyElements),
		Multiplied: []uint32{0, 12, 24},
		ImagePath:  "image.png",
		Steps: []profiler.StepStat{
			{Step: "data pair", Duration: 1500 * time.Microsecond, AllocBytes: 2048, GCCount: 1},
		},
	}
}

func TestResultReport(t *testing.T) {
	rep := sampleResult().Report()
	assert.Equal(t, "llvmpipe", rep.Adapter)
	assert.Equal(t, "Vulkan", rep.Backend)
	assert.Equal(t, &ReportPair{A: 10, B: 9}, rep.DataPair)
	assert.Equal(t, CopyElements, rep.Copied)
	assert.Equal(t, &ReportCompute{Elements: 3, Factor: MultiplyFactor, Last: 24}, rep.Compute)
	require.Len(t, rep.Steps, 1)
	assert.Equal(t, "1.5ms", rep.Steps[0].Duration)

	empty := Result{}.Report()
	assert.Nil(t, empty.DataPair)
	assert.Nil(t, empty.Compute)
	assert.Empty(t, empty.Steps)
}

func TestWriteReport(t *testing.T) {
	want := sampleResult().Report()

	var buf bytes.Buffer
	require.NoError(t, sampleResult().WriteReport(&buf, ReportFormatYAML))
	assert.Contains(t, buf.String(), "adapter: llvmpipe")
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, want, fromYAML)

	buf.Reset()
	require.NoError(t, sampleResult().WriteReport(&buf, ReportFormatTOML))
	assert.Contains(t, buf.String(), "[[steps]]")
	var fromTOML Report
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &fromTOML))
	assert.Equal(t, want, fromTOML)

	assert.ErrorIs(t, sampleResult().WriteReport(&buf, ReportFormat(7)), ErrUnknownReportFormat)
}
