package image

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-compute/engine/device"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) device.Device {
	t.Helper()
	dev, err := device.NewDevice(device.WithLabel(t.Name()))
	require.NoError(t, err)
	t.Cleanup(dev.Release)
	return dev
}
