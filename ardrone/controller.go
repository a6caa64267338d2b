package ardrone

import (
	"io"
	"log"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	uuid "github.com/gofrs/uuid"
	multierror "github.com/hashicorp/go-multierror"
)

const (
	defaultDroneIP       = "192.168.1.1"
	configGap            = 100 * time.Millisecond
	watchdogInterval     = 150 * time.Millisecond
	defaultAltitudeMax   = 2.0
	defaultVerticalSpeed = 0.7
	defaultRotationSpeed = 3.0
	defaultEulerAngleMax = 0.26
)

// Option configures a Controller at construction time — the functional
// options pattern gobot's own Adaptor/Driver constructors use throughout
// the platform family, standing in for the CLI/config-file loading this
// core explicitly excludes (SPEC_FULL.md §1.3).
type Option func(*Controller)

// WithDroneIP overrides the default aircraft address (192.168.1.1).
func WithDroneIP(ip string) Option {
	return func(c *Controller) { c.droneIP = ip }
}

// WithVideoDecoder installs a FrameDecoder; without it the video
// supervisor is left uninitialized and video operations are no-ops.
func WithVideoDecoder(d FrameDecoder) Option {
	return func(c *Controller) { c.frameDecoder = d }
}

// WithComputeWorldData enables dead-reckoning world-frame tracking from
// construction (equivalent to an immediate SetComputeWorldData(true)).
func WithComputeWorldData(enable bool) Option {
	return func(c *Controller) { c.computeWorldData = enable }
}

// Controller is the public facade aggregating Transport, CommandEncoder,
// TelemetryDecoder and VideoSupervisor, and runs the watchdog heartbeat
// (spec.md §4.6).
type Controller struct {
	droneIP          string
	computeWorldData bool
	frameDecoder     FrameDecoder

	transport *Transport
	cmd       *CommandEncoder
	telemetry *TelemetryDecoder
	video     *VideoSupervisor

	altitudeMax   float32
	verticalSpeed float32
	rotationSpeed float32
	eulerAngleMax float32
	isWithoutShell bool
	isOutdoor      bool

	connected int32 // atomic bool
	watchdogDone chan struct{}
}

// New constructs a Controller and runs the full connection sequence:
// dial all four channels, send the identity config triple (100ms
// gapped), apply the default flight envelope config, set the default
// video config, arm the telemetry receive loop, and start the watchdog
// (ardrone.cpp ARDrone ctor; SPEC_FULL.md §3). Any of sessionID, userID,
// appID left empty is filled with a fresh random UUID.
func New(sessionID, userID, appID string, opts ...Option) (*Controller, error) {
	sessionID = orRandomUUID(sessionID)
	userID = orRandomUUID(userID)
	appID = orRandomUUID(appID)

	c := &Controller{
		droneIP:       defaultDroneIP,
		altitudeMax:   defaultAltitudeMax,
		verticalSpeed: defaultVerticalSpeed,
		rotationSpeed: defaultRotationSpeed,
		eulerAngleMax: defaultEulerAngleMax,
		watchdogDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	transport, err := NewTransport(c.droneIP)
	if err != nil {
		return nil, err
	}
	c.transport = transport
	c.cmd = NewCommandEncoder(transport, sessionID, userID, appID)
	c.telemetry = NewTelemetryDecoder(c.computeWorldData)

	if c.frameDecoder != nil {
		c.video = NewVideoSupervisor(c.dialVideo, c.frameDecoder, c.transport.SendVideoInit)
	}

	atomic.StoreInt32(&c.connected, 1)

	c.cmd.ConfigString("custom:session_id", sessionID)
	time.Sleep(configGap)
	c.cmd.ConfigString("custom:profile_id", userID)
	time.Sleep(configGap)
	c.cmd.ConfigString("custom:application_id", appID)
	time.Sleep(configGap)

	c.SetAltitudeMax(c.altitudeMax)
	c.SetVerticalSpeed(c.verticalSpeed)
	c.SetRotationSpeed(c.rotationSpeed)
	c.SetSpeed(c.eulerAngleMax)
	c.SetIsWithoutShell(false)
	c.SetIsOutdoor(false)

	c.SetDefaultConfig()

	c.initNavdata()

	if c.video != nil {
		c.video.Init()
	}

	go c.watchdogLoop()

	return c, nil
}

func orRandomUUID(s string) string {
	if s != "" {
		return s
	}
	id, err := uuid.NewV4()
	if err != nil {
		log.Printf("ardrone: uuid generation failed, falling back to nil uuid: %v", err)
		return uuid.Nil.String()
	}
	return id.String()
}

// dialVideo opens a fresh TCP connection to the video channel for each
// (re)connect attempt made by VideoSupervisor. This is independent of
// Transport's own long-lived video socket, which only ever sends the
// one-time trigger — mirroring the original, where the raw
// ARDroneConnections video socket (trigger only) and Video's own
// avformat_open_input("tcp://...") stream are two distinct connections
// to the same port (ardroneconnections.cpp, video.cpp).
func (c *Controller) dialVideo() (io.ReadCloser, error) {
	return net.Dial("tcp", net.JoinHostPort(c.droneIP, strconv.Itoa(defaultVideoPort)))
}

// initNavdata arms the telemetry receive loop, disables the built-in
// "demo mode" summary (the core wants the full option stream), issues
// the AT*CTRL acquisition-mode switch, and starts the receive loop
// (ardrone.cpp initNavdata; SPEC_FULL.md §3).
func (c *Controller) initNavdata() {
	c.transport.SendNavdataStart()
	c.cmd.ConfigBool("general:navdata_demo", false)
	time.Sleep(configGap)
	c.cmd.CtrlAckReset()
	c.transport.StartTelemetryLoop(c.telemetry)
}

func (c *Controller) watchdogLoop() {
	defer close(c.watchdogDone)
	for atomic.LoadInt32(&c.connected) != 0 {
		c.cmd.Comwdg()
		time.Sleep(watchdogInterval)
	}
}

// TakeOff resets world-data tracking (if enabled) then sends the
// take-off control bit.
func (c *Controller) TakeOff() {
	if c.telemetry.ComputingWorldData() {
		c.telemetry.ResetWorldData()
	}
	c.cmd.TakeOff()
}

// Land sends the land control word (take-off bit cleared).
func (c *Controller) Land() { c.cmd.Land() }

// Emergency sends the emergency control word.
func (c *Controller) Emergency() { c.cmd.Emergency() }

// Move issues a progressive PCMD for body-frame movement m with zero
// yaw rate.
func (c *Controller) Move(m Vector3) { c.cmd.Move(m, 0) }

// MoveYaw issues a progressive PCMD for body-frame movement m and yaw
// rate yr.
func (c *Controller) MoveYaw(m Vector3, yr float32) { c.cmd.Move(m, yr) }

// EnterHoveringMode sends the all-zero PCMD hovering command.
func (c *Controller) EnterHoveringMode() { c.cmd.Hover() }

// AnimLeds drives an LED pattern.
func (c *Controller) AnimLeds(id LEDAnimationID, freq float32, durationSeconds int) {
	c.cmd.AnimLeds(id, freq, durationSeconds)
}

// Anim drives a flight animation.
func (c *Controller) Anim(id AnimationID) { c.cmd.Anim(id) }

// Calibrate triggers magnetometer calibration, only while flying
// (ardrone.cpp calibrate()).
func (c *Controller) Calibrate() {
	if c.IsFlying() {
		c.cmd.Calib()
	}
}

// Trim triggers flat-trim, only while landed (ardrone.cpp trim()).
func (c *Controller) Trim() {
	if !c.IsFlying() {
		c.cmd.FlatTrim()
	}
}

// SetDefaultConfig resets camera and video codec to their defaults
// (front camera, H264 360p) — ardrone.cpp setDefaultConfig().
func (c *Controller) SetDefaultConfig() {
	c.SetCamera(FrontCamera)
	c.SetVideoCodec(H264_360P)
}

func (c *Controller) SetCamera(camera VideoCamera) {
	c.cmd.ConfigInt("video:video_channel", int(camera))
}

// SetVideoCodec stops the video supervisor, sends the codec config,
// then restarts it (spec.md §4.6).
func (c *Controller) SetVideoCodec(codec VideoCodec) {
	if c.video != nil {
		c.video.Stop()
	}
	c.cmd.ConfigInt("video:video_codec", int(codec))
	if c.video != nil {
		c.video.Restart()
	}
}

// SetVideoRecord toggles on-USB recording, reapplying the default
// config afterward (ardrone.cpp setVideoRecord()).
func (c *Controller) SetVideoRecord(activate bool) {
	if c.video != nil {
		c.video.Stop()
	}
	c.cmd.ConfigBool("video:video_on_usb", activate)
	c.SetDefaultConfig()
}

// SetAltitudeMax sets the maximum altitude in metres (wire unit mm).
func (c *Controller) SetAltitudeMax(metres float32) {
	c.altitudeMax = metres
	c.cmd.ConfigInt("control:altitude_max", int(metres*1000))
	time.Sleep(configGap)
}

// SetVerticalSpeed sets the max vertical speed in m/s (wire unit mm/s).
func (c *Controller) SetVerticalSpeed(metresPerSec float32) {
	c.verticalSpeed = metresPerSec
	c.cmd.ConfigFloat("control:control_vz_max", metresPerSec*1000)
	time.Sleep(configGap)
}

// SetRotationSpeed sets the max yaw rotation speed (wire unit rad/s).
func (c *Controller) SetRotationSpeed(radPerSec float32) {
	c.rotationSpeed = radPerSec
	c.cmd.ConfigFloat("control:control_yaw", radPerSec)
	time.Sleep(configGap)
}

// SetSpeed sets the maximum Euler tilt angle, in radians.
func (c *Controller) SetSpeed(maxEulerAngleRad float32) {
	c.eulerAngleMax = maxEulerAngleRad
	c.cmd.ConfigFloat("control:euler_angle_max", maxEulerAngleRad)
	time.Sleep(configGap)
}

func (c *Controller) SetIsWithoutShell(without bool) {
	c.isWithoutShell = without
	c.cmd.ConfigBool("control:flight_without_shell", without)
	time.Sleep(configGap)
}

func (c *Controller) SetIsOutdoor(outdoor bool) {
	c.isOutdoor = outdoor
	c.cmd.ConfigBool("control:outdoor", outdoor)
	time.Sleep(configGap)
}

// SetComputeWorldData toggles dead-reckoning tracking (no-op while
// flying — TelemetryDecoder enforces the invariant).
func (c *Controller) SetComputeWorldData(activate bool) {
	c.telemetry.SetComputeWorldData(activate)
}

// ResetWorldData re-arms world-frame tracking mid-session (§3 of
// SPEC_FULL.md; supplemented from Navdata::resetWorldData).
func (c *Controller) ResetWorldData() { c.telemetry.ResetWorldData() }

// IsFlying reports whether the aircraft's published state carries the
// flying bit.
func (c *Controller) IsFlying() bool {
	return c.telemetry.State()&StateFlying != 0
}

// GetState reports whether mask is set in the published state bitmask.
func (c *Controller) GetState(mask uint32) bool {
	return c.telemetry.State()&mask != 0
}

// GetLastNavdataReception returns time elapsed since the last
// successful telemetry receive.
func (c *Controller) GetLastNavdataReception() time.Duration {
	return c.transport.LastTelemetryReception()
}

// Telemetry exposes the underlying decoder for read-only telemetry
// accessors (battery, altitude, rotation, velocity, world position).
func (c *Controller) Telemetry() *TelemetryDecoder { return c.telemetry }

// GetFrame returns a copy of the video supervisor's RGB buffer, or nil if
// no video decoder is configured or the supervisor has never initialized
// successfully (see VideoSupervisor.GetFrame: the buffer is all zero
// bytes until the first frame is decoded).
func (c *Controller) GetFrame() []byte {
	if c.video == nil {
		return nil
	}
	return c.video.GetFrame()
}

// Close tears down the watchdog, telemetry loop, video supervisor and
// all sockets in reverse order of construction, accumulating every
// teardown failure instead of stopping at the first
// (SPEC_FULL.md §1.2).
func (c *Controller) Close() error {
	atomic.StoreInt32(&c.connected, 0)
	<-c.watchdogDone

	var result *multierror.Error

	if c.video != nil {
		c.video.Terminate()
	}

	if err := c.transport.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
