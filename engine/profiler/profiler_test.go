package profiler

import (
	"bytes"
	"log"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestTrack(t *testing.T) {
	out := captureLog(t)
	p := NewProfiler()

	stop := p.Track("compute")
	time.Sleep(2 * time.Millisecond)
	stop()
	stop()

	steps := p.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, "compute", steps[0].Step)
	assert.GreaterOrEqual(t, steps[0].Duration, 2*time.Millisecond)
	assert.Contains(t, out.String(), "[Profiler] compute:")
}

func TestNilProfilerIsNoop(t *testing.T) {
	var p *Profiler
	p.Track("anything")()
	assert.Nil(t, p.Steps())
	assert.False(t, p.Tick())
}

func TestTick(t *testing.T) {
	out := captureLog(t)

	p := NewProfiler(WithUpdateInterval(time.Hour))
	assert.False(t, p.Tick())

	p = NewProfiler(WithUpdateInterval(0))
	assert.True(t, p.Tick())
	assert.Contains(t, out.String(), "[Profiler] FPS:")
}

func TestGCPauses(t *testing.T) {
	var ms runtime.MemStats
	last, maxPause := gcPauses(&ms, 0)
	assert.Zero(t, last)
	assert.Zero(t, maxPause)

	ms.NumGC = 3
	ms.PauseNs[0] = 5000
	ms.PauseNs[1] = 9000
	ms.PauseNs[2] = 2000
	last, maxPause = gcPauses(&ms, 0)
	assert.Equal(t, uint64(2), last)
	assert.Equal(t, uint64(9), maxPause)

	_, maxPause = gcPauses(&ms, 2)
	assert.Equal(t, uint64(2), maxPause)
}
