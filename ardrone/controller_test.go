package ardrone

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestController builds a Controller around a fake Sender, bypassing
// NewTransport's real socket dialing — CommandEncoder and
// TelemetryDecoder are the pieces under test here.
func newTestController(sender *fakeSender, computeWorldData bool) *Controller {
	return &Controller{
		cmd:       NewCommandEncoder(sender, "S", "U", "A"),
		telemetry: NewTelemetryDecoder(computeWorldData),
	}
}

func setFlyingState(d *TelemetryDecoder, flying bool) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], navdataMagic)
	if flying {
		binary.LittleEndian.PutUint32(buf[4:8], StateFlying)
	}
	d.Decode(buf, 0)
}

func TestController_TakeOffResetsWorldDataWhenEnabled(t *testing.T) {
	sender := &fakeSender{}
	c := newTestController(sender, true)

	c.telemetry.SetComputeWorldData(true) // no-op if computeWorldData already true

	c.TakeOff()

	require.True(t, c.telemetry.state.needToResetRotation)
	require.Equal(t, []string{"AT*REF=1,290718208\r"}, sender.lines)
}

func TestController_CalibrateOnlyWhileFlying(t *testing.T) {
	sender := &fakeSender{}
	c := newTestController(sender, false)

	c.Calibrate()
	require.Empty(t, sender.lines)

	setFlyingState(c.telemetry, true)
	c.Calibrate()
	require.Equal(t, []string{"AT*CALIB=1,0\r"}, sender.lines)
}

func TestController_TrimOnlyWhileLanded(t *testing.T) {
	sender := &fakeSender{}
	c := newTestController(sender, false)

	setFlyingState(c.telemetry, true)
	c.Trim()
	require.Empty(t, sender.lines)

	setFlyingState(c.telemetry, false)
	c.Trim()
	require.Equal(t, []string{"AT*FTRIM=1\r"}, sender.lines)
}

func TestController_IsFlyingAndGetState(t *testing.T) {
	sender := &fakeSender{}
	c := newTestController(sender, false)

	require.False(t, c.IsFlying())

	setFlyingState(c.telemetry, true)

	require.True(t, c.IsFlying())
	require.True(t, c.GetState(StateFlying))
	require.False(t, c.GetState(StateLowBattery))
}

func TestController_MoveAppliesAxisFlip(t *testing.T) {
	sender := &fakeSender{}
	c := newTestController(sender, false)

	c.Move(Vector3{X: 0, Y: 0, Z: 0.25})

	require.Equal(t, []string{
		"AT*PCMD=1,1,0,-1098907648,0,0\r",
	}, sender.lines)
}
