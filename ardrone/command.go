package ardrone

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Flight animation ids (spec.md §6, GLOSSARY).
type AnimationID int

const (
	AnimPhiM30Deg AnimationID = iota
	AnimPhi30Deg
	AnimThetaM30Deg
	AnimTheta30Deg
	AnimTheta20DegYaw200Deg
	AnimTheta20DegYawM200Deg
	AnimTurnaround
	AnimTurnaroundGoDown
	AnimYawShake
	AnimYawDance
	AnimPhiDance
	AnimThetaDance
	AnimVzDance
	AnimWave
	AnimPhiThetaMixed
	AnimDoublePhiThetaMixed
	AnimFlipAhead
	AnimFlipBehind
	AnimFlipLeft
	AnimFlipRight
)

// animationDurationMS is the fixed lookup table for the control:flight_anim
// duration argument, indexed by AnimationID (spec.md §6).
var animationDurationMS = [...]int{
	1000, 1000, 1000, 1000, 1000, 1000, 5000, 5000, 2000, 5000,
	5000, 5000, 5000, 5000, 5000, 5000, 200, 200, 200, 200,
}

// LED animation ids (spec.md §6).
type LEDAnimationID int

const (
	LEDBlinkGreenRed LEDAnimationID = iota
	LEDBlinkGreen
	LEDBlinkRed
	LEDBlinkOrange
	LEDSnakeGreenRed
	LEDFire
	LEDStandard
	LEDRed
	LEDGreen
	LEDRedSnake
	LEDBlank
	LEDRightMissile
	LEDLeftMissile
	LEDDoubleMissile
	LEDFrontLeftGreenOthersRed
	LEDFrontRightGreenOthersRed
	LEDRearRightGreenOthersRed
	LEDRearLeftGreenOthersRed
	LEDLeftGreenRightRed
	LEDLeftRedRightGreen
	LEDBlinkStandard
)

// Video camera channel (spec.md §6).
type VideoCamera int

const (
	FrontCamera  VideoCamera = 0
	BottomCamera VideoCamera = 1
)

// Video codec ids (spec.md §6).
type VideoCodec int

const (
	H264_360P             VideoCodec = 0x81
	MP4_360P_H264_720P    VideoCodec = 0x82
	H264_720P             VideoCodec = 0x83
	MP4_360P_H264_360P    VideoCodec = 0x88
)

// refBaseBits is OR-ed unconditionally into every AT*REF argument
// (spec.md §4.2).
const refBaseBits = 1<<28 | 1<<24 | 1<<22 | 1<<20 | 1<<18

// pcmdProgressiveFlag enables progressive (non-hovering) commands.
const pcmdProgressiveFlag = 1 << 0

// Sender is the thing a CommandEncoder emits AT lines onto — satisfied by
// Transport.SendAT. Kept as an interface so the encoder can be unit tested
// without a live socket.
type Sender interface {
	SendAT(line string)
}

// CommandEncoder serializes typed requests into the textual AT* protocol
// with a monotonic per-process sequence counter, starting at 1
// (spec.md §3 CommandState, §4.2).
type CommandEncoder struct {
	sender Sender

	indexCmd uint32 // atomic

	sessionID string
	userID    string
	appID     string
}

// NewCommandEncoder constructs an encoder bound to sender, with the given
// session/user/app identity triple fixed for the encoder's lifetime.
func NewCommandEncoder(sender Sender, sessionID, userID, appID string) *CommandEncoder {
	return &CommandEncoder{
		sender:    sender,
		indexCmd:  1,
		sessionID: sessionID,
		userID:    userID,
		appID:     appID,
	}
}

func (c *CommandEncoder) nextSeq() uint32 {
	return atomic.AddUint32(&c.indexCmd, 1) - 1
}

// floatBits reinterprets f's IEEE-754 bit pattern as a signed int32 — the
// wire's float encoding for PCMD and LED animation frequency arguments.
// Never serialize these as decimal text (spec.md §9 design note).
func floatBits(f float32) int32 {
	return int32(math.Float32bits(f))
}

// Ref sends AT*REF with ctrl OR-ed with the unconditional base bits.
func (c *CommandEncoder) Ref(ctrl int) {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*REF=%d,%d\r", seq, refBaseBits|ctrl))
}

// TakeOff sends AT*REF with the take-off bit (9) set.
func (c *CommandEncoder) TakeOff() {
	c.Ref(1 << 9)
}

// Land sends AT*REF with bit 9 clear.
func (c *CommandEncoder) Land() {
	c.Ref(0)
}

// Emergency sends AT*REF with the emergency bit (8) set.
func (c *CommandEncoder) Emergency() {
	c.Ref(1 << 8)
}

// FlatTrim sends AT*FTRIM. The caller (Controller) is responsible for the
// "only while landed" invariant (spec.md §4.2); the encoder itself performs
// no flight-state check.
func (c *CommandEncoder) FlatTrim() {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*FTRIM=%d\r", seq))
}

// PCMD sends AT*PCMD for the given flags and wire-frame phi/theta/gaz/yaw
// arguments (Move applies the body-to-wire axis flips), dropping
// the whole command silently if any axis is out of [-1, 1]
// (spec.md §4.2, §8 property 3).
func (c *CommandEncoder) PCMD(flags int, phi, theta, gaz, yaw float32) {
	for _, v := range []float32{phi, theta, gaz, yaw} {
		if v < -1 || v > 1 {
			return
		}
	}
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*PCMD=%d,%d,%d,%d,%d,%d\r",
		seq, flags, floatBits(phi), floatBits(theta), floatBits(gaz), floatBits(yaw)))
}

// Move issues a PCMD for body-frame movement m and yaw rate yr, applying the
// phi/theta/gaz/yaw axis flips documented in spec.md §4.2:
// phi = m.x, theta = -m.z, gaz = m.y, yaw = yr.
func (c *CommandEncoder) Move(m Vector3, yr float32) {
	if !m.InRange(-1, 1) || yr < -1 || yr > 1 {
		return
	}
	c.PCMD(pcmdProgressiveFlag, m.X, -m.Z, m.Y, yr)
}

// Hover sends AT*PCMD with all-zero arguments (spec.md §4.2).
func (c *CommandEncoder) Hover() {
	c.PCMD(0, 0, 0, 0, 0)
}

// ConfigIDs sends the AT*CONFIG_IDS preamble required before every
// AT*CONFIG (spec.md §4.2).
func (c *CommandEncoder) ConfigIDs() {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CONFIG_IDS=%d,%q,%q,%q\r", seq, c.sessionID, c.userID, c.appID))
}

// ConfigString sets a string-valued config entry, preceded by ConfigIDs.
func (c *CommandEncoder) ConfigString(name, value string) {
	c.ConfigIDs()
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CONFIG=%d,%q,%q\r", seq, name, value))
}

// ConfigInt sets an integer-valued config entry (e.g. control:altitude_max,
// in millimetres), preceded by ConfigIDs.
func (c *CommandEncoder) ConfigInt(name string, value int) {
	c.ConfigIDs()
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CONFIG=%d,%q,\"%d\"\r", seq, name, value))
}

// ConfigFloat sets a float-valued config entry (e.g. control:control_vz_max,
// radians or mm/s depending on entry), preceded by ConfigIDs. Floats here
// are textual, NOT the PCMD bit-pattern encoding — config values are
// human-readable strings on this channel.
func (c *CommandEncoder) ConfigFloat(name string, value float32) {
	c.ConfigIDs()
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CONFIG=%d,%q,\"%g\"\r", seq, name, value))
}

// ConfigBool sets a boolean config entry, serialized as the literal strings
// "TRUE"/"FALSE" (spec.md §4.2).
func (c *CommandEncoder) ConfigBool(name string, value bool) {
	if value {
		c.ConfigString(name, "TRUE")
	} else {
		c.ConfigString(name, "FALSE")
	}
}

// Comwdg sends AT*COMWDG, the watchdog reset emitted every 150ms by the
// Controller while connected.
func (c *CommandEncoder) Comwdg() {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*COMWDG=%d\r", seq))
}

// Calib sends AT*CALIB for magnetometer calibration. The caller
// (Controller) enforces the "only while flying" invariant.
func (c *CommandEncoder) Calib() {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CALIB=%d,0\r", seq))
}

// CtrlAckReset sends AT*CTRL=<seq>,5, switching the aircraft's navdata
// acquisition mode. Recovered from the original ARDrone::initNavdata (see
// SPEC_FULL.md §3); issued once by New, via Controller.initNavdata.
func (c *CommandEncoder) CtrlAckReset() {
	seq := c.nextSeq()
	c.sender.SendAT(fmt.Sprintf("AT*CTRL=%d,5\r", seq))
}

// AnimLeds sends the leds:leds_anim config entry. freq is serialized with
// the same IEEE-754 bit-pattern trick as PCMD floats.
func (c *CommandEncoder) AnimLeds(id LEDAnimationID, freq float32, durationSeconds int) {
	value := fmt.Sprintf("%d,%d,%d", id, floatBits(freq), durationSeconds)
	c.ConfigString("leds:leds_anim", value)
}

// Anim sends the control:flight_anim config entry, looking up the
// animation's duration in the fixed table (spec.md §6).
func (c *CommandEncoder) Anim(id AnimationID) {
	if int(id) < 0 || int(id) >= len(animationDurationMS) {
		return
	}
	value := fmt.Sprintf("%d,%d", id, animationDurationMS[id])
	c.ConfigString("control:flight_anim", value)
}
