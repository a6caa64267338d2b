package ardrone

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReconnectSchedule_PropertySeven(t *testing.T) {
	require.Len(t, reconnectScheduleMS, 16)

	sum := 0
	for _, ms := range reconnectScheduleMS {
		sum += ms
	}
	require.Equal(t, 12120, sum)

	expected := []int{30, 30, 30, 30, 150, 150, 150, 150, 150, 750, 750, 750, 750, 750, 3750, 3750}
	require.Equal(t, expected, reconnectScheduleMS)
}

// fakeFrameDecoder is a FrameDecoder test double whose ReadDecode
// outcomes are scripted, to drive the supervisor's stall/recover
// transitions (spec.md §8 S6) without a real codec.
type fakeFrameDecoder struct {
	mu       sync.Mutex
	outcomes []decodeOutcome
	opened   int
	closed   int
}

type decodeOutcome struct {
	ok  bool
	err error
}

func (f *fakeFrameDecoder) Open(r io.Reader) (int, int, error) {
	f.mu.Lock()
	f.opened++
	f.mu.Unlock()
	return 4, 4, nil
}

func (f *fakeFrameDecoder) ReadDecode() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outcomes) == 0 {
		return true, nil
	}
	out := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return out.ok, out.err
}

func (f *fakeFrameDecoder) ConvertRGB(dst []byte) error {
	return nil
}

func (f *fakeFrameDecoder) Close() error {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

type fakeReadCloser struct {
	*bytes.Reader
}

func (fakeReadCloser) Close() error { return nil }

func alwaysDial() (io.ReadCloser, error) {
	return fakeReadCloser{bytes.NewReader(nil)}, nil
}

// TestVideoSupervisor_StallLatch_S6 exercises the two-state stall latch
// directly (spec.md §4.5 / S6): a lone decode failure only arms the
// latch; a second consecutive failure clears active. A success in
// between clears the latch again.
func TestVideoSupervisor_StallLatch_S6(t *testing.T) {
	decoder := &fakeFrameDecoder{}
	v := NewVideoSupervisor(alwaysDial, decoder, nil)
	v.active = true

	decoder.outcomes = []decodeOutcome{{ok: false, err: errors.New("x")}}
	v.decodeOnce()
	require.True(t, v.possiblyDisconnected)
	require.True(t, v.active)

	decoder.outcomes = []decodeOutcome{{ok: true}}
	v.decodeOnce()
	require.False(t, v.possiblyDisconnected)
	require.True(t, v.active)

	decoder.outcomes = []decodeOutcome{{ok: false, err: errors.New("x")}, {ok: false, err: errors.New("x")}}
	v.decodeOnce()
	require.True(t, v.possiblyDisconnected)
	v.decodeOnce()
	require.False(t, v.active)
}

func TestVideoSupervisor_InitSuccessAllocatesFrameBuffer(t *testing.T) {
	v := NewVideoSupervisor(alwaysDial, &fakeFrameDecoder{}, nil)

	require.Equal(t, 0, v.Init())
	require.Equal(t, 4, v.GetWidth())
	require.Equal(t, 4, v.GetHeight())
	require.Equal(t, 48, len(v.GetFrame()))

	v.Terminate()
}

func TestVideoSupervisor_InitFailureReturnsNegativeOne(t *testing.T) {
	v := NewVideoSupervisor(func() (io.ReadCloser, error) {
		return nil, errors.New("connection refused")
	}, &fakeFrameDecoder{}, nil)

	require.Equal(t, -1, v.Init())
}

func TestVideoSupervisor_GetWidthHeightBeforeInit(t *testing.T) {
	v := NewVideoSupervisor(alwaysDial, &fakeFrameDecoder{}, nil)

	require.Equal(t, -1, v.GetWidth())
	require.Equal(t, -1, v.GetHeight())
	require.Nil(t, v.GetFrame())
}

func TestVideoSupervisor_OnFirstInitCalledOnce(t *testing.T) {
	calls := 0
	decoder := &fakeFrameDecoder{}
	v := NewVideoSupervisor(alwaysDial, decoder, func() { calls++ })

	require.Equal(t, 0, v.Init())
	time.Sleep(20 * time.Millisecond)
	v.Terminate()

	require.Equal(t, 0, v.Init())
	v.Terminate()

	require.Equal(t, 1, calls)
}
