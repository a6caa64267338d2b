package ardrone

import (
	"io"
	"log"
	"sync"
	"time"
)

// videoState names the VideoSupervisor state machine (spec.md §4.5).
type videoState int

const (
	videoInit videoState = iota
	videoRunning
	videoStalled
	videoReleasing
	videoReconnecting
	videoTerminated
)

// Open/read-frame/decode/convert-to-RGB primitives the supervisor
// drives. The concrete H.264/MP4 codec is explicitly out of scope
// (spec.md §1, §9) — callers inject a FrameDecoder, typically backed by
// cgo bindings to a real decoder; tests inject a fake.
type FrameDecoder interface {
	// Open probes stream info and allocates codec/frame resources
	// against r, returning the frame dimensions.
	Open(r io.Reader) (width, height int, err error)
	// ReadDecode reads one packet and decodes it. ok is false when the
	// packet carried no complete frame (not itself an error).
	ReadDecode() (ok bool, err error)
	// ConvertRGB copies the most recently decoded frame into dst,
	// which is sized width*height*3.
	ConvertRGB(dst []byte) error
	// Close releases all resources allocated by Open, in reverse
	// allocation order.
	Close() error
}

// reconnectScheduleMS is the bounded backoff schedule: base 30ms,
// multiplied by 5 every 5th attempt, for 16 attempts total
// (video.cpp tryToConnect; spec.md §4.5, §8 property 7).
var reconnectScheduleMS = buildReconnectSchedule()

func buildReconnectSchedule() []int {
	const attempts = 16
	sched := make([]int, attempts)
	t := 30
	for i := 1; i <= attempts; i++ {
		if i%5 == 0 {
			t *= 5
		}
		sched[i-1] = t
	}
	return sched
}

// VideoSupervisor owns a FrameDecoder, drives its open/decode loop,
// detects stalls via a two-state latch, and performs the bounded
// reconnect schedule on failure (spec.md §4.5).
type VideoSupervisor struct {
	dial func() (io.ReadCloser, error)

	decoder FrameDecoder

	mu     sync.Mutex
	conn   io.ReadCloser
	width  int
	height int
	frame  []byte

	stateMu sync.Mutex
	state   videoState

	active               bool
	possiblyDisconnected bool
	firstConnection      bool
	terminate            bool
	reconnectAttempts    int

	onFirstInit func()

	loopDone chan struct{}
}

// NewVideoSupervisor constructs a supervisor. dial opens a fresh stream
// connection on every (re)connect attempt; decoder performs the actual
// H.264 decode against whatever dial returns. onFirstInit is invoked
// once, before the very first Init, mirroring Video::m_callbackInitFunc
// (video.cpp — used by the original to fire the video-init AT trigger).
func NewVideoSupervisor(dial func() (io.ReadCloser, error), decoder FrameDecoder, onFirstInit func()) *VideoSupervisor {
	return &VideoSupervisor{
		dial:            dial,
		decoder:         decoder,
		firstConnection: true,
		onFirstInit:     onFirstInit,
		state:           videoInit,
	}
}

func (v *VideoSupervisor) setState(s videoState) {
	v.stateMu.Lock()
	v.state = s
	v.stateMu.Unlock()
}

func (v *VideoSupervisor) State() videoState {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	return v.state
}

// Init opens the stream, allocates decoder resources, and (on success)
// launches the decode loop goroutine. Returns one of the negative
// sentinels described in spec.md §4.5 on failure, 0 on success.
func (v *VideoSupervisor) Init() int {
	v.active = false
	if v.firstConnection {
		v.firstConnection = false
		if v.onFirstInit != nil {
			v.onFirstInit()
		}
	}

	conn, err := v.dial()
	if err != nil {
		log.Printf("ardrone: video open failed: %v", err)
		return -1
	}

	width, height, err := v.decoder.Open(conn)
	if err != nil {
		conn.Close()
		log.Printf("ardrone: video decoder open failed: %v", err)
		return -3
	}

	v.mu.Lock()
	v.conn = conn
	v.width = width
	v.height = height
	v.frame = make([]byte, width*height*3)
	v.mu.Unlock()

	v.possiblyDisconnected = false
	v.active = true
	v.loopDone = make(chan struct{})
	v.setState(videoRunning)
	go v.decodeLoop()

	return 0
}

// decodeLoop is the per-iteration 16ms sleep/read/decode cycle
// (video.cpp's m_videoThread body). active is set by Init before this
// goroutine is launched, so a Stop() racing the launch always observes
// a consistent state.
func (v *VideoSupervisor) decodeLoop() {
	defer close(v.loopDone)

	v.decodeOnce()
	for v.active && !v.terminate {
		time.Sleep(16 * time.Millisecond)
		v.decodeOnce()
	}

	v.setState(videoReleasing)
	v.release()

	if !v.terminate {
		v.setState(videoReconnecting)
		v.reconnect()
	}
}

// decodeOnce reads and decodes a single packet, applying the two-state
// stall latch: a lone failure arms possiblyDisconnected; a second
// consecutive failure clears active (exit the loop). Any successful
// decode clears the latch (spec.md §4.5).
func (v *VideoSupervisor) decodeOnce() {
	ok, err := v.decoder.ReadDecode()
	if err != nil || !ok {
		if err != nil {
			log.Printf("ardrone: video decode failed: %v", err)
		}
		if v.possiblyDisconnected {
			v.active = false
			v.setState(videoStalled)
		} else {
			v.possiblyDisconnected = true
		}
		return
	}

	v.mu.Lock()
	frame := v.frame
	v.mu.Unlock()
	if convErr := v.decoder.ConvertRGB(frame); convErr != nil {
		log.Printf("ardrone: video RGB conversion failed: %v", convErr)
		return
	}
	v.possiblyDisconnected = false
}

// release frees decoder and connection resources in reverse allocation
// order and sleeps 80ms for codec quiesce (video.cpp release()).
func (v *VideoSupervisor) release() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.decoder.Close(); err != nil {
		log.Printf("ardrone: video decoder close failed: %v", err)
	}
	if v.conn != nil {
		if err := v.conn.Close(); err != nil {
			log.Printf("ardrone: video connection close failed: %v", err)
		}
		v.conn = nil
	}

	time.Sleep(80 * time.Millisecond)
}

// reconnect retries Init up to 16 times on the bounded schedule,
// giving up silently after the last attempt (spec.md §4.5, §8
// property 7).
func (v *VideoSupervisor) reconnect() {
	v.reconnectAttempts = 0
	for _, waitMS := range reconnectScheduleMS {
		if v.terminate {
			return
		}
		time.Sleep(time.Duration(waitMS) * time.Millisecond)
		v.reconnectAttempts++
		if v.Init() == 0 {
			return
		}
	}
}

// Restart stops the current connection (if any) and retries from INIT,
// used by Controller.setVideoCodec (spec.md §4.6).
func (v *VideoSupervisor) Restart() {
	v.Stop()
	v.Init()
}

// Stop halts the decode loop and releases resources without
// terminating the supervisor permanently.
func (v *VideoSupervisor) Stop() {
	v.active = false
	if v.loopDone != nil {
		<-v.loopDone
	}
}

// Terminate stops the supervisor permanently; no further reconnect
// attempts will be launched.
func (v *VideoSupervisor) Terminate() {
	v.terminate = true
	v.Stop()
}

// GetFrame returns a caller-owned copy of the RGB working buffer, or nil
// before the first successful Init. The buffer is allocated by Init, so
// between Init and the first decoded frame the copy is all zero bytes;
// there is no separate "frame ready" signal.
func (v *VideoSupervisor) GetFrame() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.frame == nil {
		return nil
	}
	out := make([]byte, len(v.frame))
	copy(out, v.frame)
	return out
}

// GetWidth returns the current stream width, or -1 before Init succeeds.
func (v *VideoSupervisor) GetWidth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return -1
	}
	return v.width
}

// GetHeight returns the current stream height, or -1 before Init succeeds.
func (v *VideoSupervisor) GetHeight() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return -1
	}
	return v.height
}
