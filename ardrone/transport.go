package ardrone

import (
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	multierror "github.com/hashicorp/go-multierror"
)

const (
	defaultATPort        = 5556
	defaultNavdataPort   = 5554
	defaultVideoPort     = 5555
	defaultControlPort   = 5559
	navdataBufferSize    = 1024
	navdataBootstrapSize = 4
)

// navdataBootstrap is the 4-byte trigger the aircraft expects before it
// starts streaming navdata, and again once on the video channel
// (ardroneconnections.cpp sendNavdataStart/sendInitVideoData).
var navdataBootstrap = []byte{0x01, 0x00, 0x00, 0x00}

// Transport owns the four sockets the aircraft expects: AT commands
// (UDP, send-only), telemetry (UDP, bootstrap + async receive loop),
// video (TCP, one-time trigger) and control (TCP, held open to match
// aircraft expectations — spec.md §4.1).
type Transport struct {
	droneIP string

	atConn       *net.UDPConn
	navdataConn  *net.UDPConn
	videoConn    *net.TCPConn
	controlConn  *net.TCPConn

	videoOnce sync.Once

	lastReceptionMu sync.Mutex
	lastReception   time.Time

	stopCh chan struct{}
}

// NewTransport dials all four channels against droneIP. TCP channels
// (video, control) are connected immediately, matching
// ARDroneConnections's constructor; the UDP channels are merely bound —
// sendNavdataStart/StartTelemetryLoop arm the actual traffic.
func NewTransport(droneIP string) (*Transport, error) {
	t := &Transport{droneIP: droneIP, stopCh: make(chan struct{})}

	atAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(droneIP, portStr(defaultATPort)))
	if err != nil {
		return nil, err
	}
	t.atConn, err = net.DialUDP("udp", nil, atAddr)
	if err != nil {
		return nil, err
	}

	navAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(droneIP, portStr(defaultNavdataPort)))
	if err != nil {
		return nil, err
	}
	t.navdataConn, err = net.DialUDP("udp", nil, navAddr)
	if err != nil {
		return nil, err
	}

	videoAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(droneIP, portStr(defaultVideoPort)))
	if err != nil {
		return nil, err
	}
	t.videoConn, err = net.DialTCP("tcp", nil, videoAddr)
	if err != nil {
		return nil, err
	}

	ctrlAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(droneIP, portStr(defaultControlPort)))
	if err != nil {
		return nil, err
	}
	t.controlConn, err = net.DialTCP("tcp", nil, ctrlAddr)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func portStr(p int) string {
	return strconv.Itoa(p)
}

// SendAT implements CommandEncoder's Sender contract: best-effort send,
// log and swallow on failure (spec.md §4.1, §7).
func (t *Transport) SendAT(line string) {
	if _, err := t.atConn.Write([]byte(line)); err != nil {
		log.Printf("ardrone: AT command send failed: %v", err)
	}
}

// SendNavdataStart sends the 4-byte bootstrap on the telemetry channel.
func (t *Transport) SendNavdataStart() {
	if _, err := t.navdataConn.Write(navdataBootstrap); err != nil {
		log.Printf("ardrone: navdata bootstrap send failed: %v", err)
	}
}

// SendVideoInit sends the same trigger on the video channel, exactly
// once across the Transport's lifetime (spec.md §4.1).
func (t *Transport) SendVideoInit() {
	t.videoOnce.Do(func() {
		if _, err := t.videoConn.Write(navdataBootstrap); err != nil {
			log.Printf("ardrone: video init send failed: %v", err)
		}
	})
}

// StartTelemetryLoop arms the async receive loop: every completed
// receive records the reception timestamp and hands the buffer to
// decoder.Decode, then re-arms. Exactly one receive is outstanding at
// any time, and decoder callbacks are serialised by construction — a
// single goroutine drives them (spec.md §4.1).
func (t *Transport) StartTelemetryLoop(decoder *TelemetryDecoder) {
	go func() {
		buf := make([]byte, navdataBufferSize)
		var last time.Time
		for {
			select {
			case <-t.stopCh:
				return
			default:
			}

			n, err := t.navdataConn.Read(buf)
			now := time.Now()
			if err != nil {
				log.Printf("ardrone: navdata receive failed: %v", err)
				continue
			}

			var dt time.Duration
			if !last.IsZero() {
				dt = now.Sub(last)
			}
			last = now

			t.lastReceptionMu.Lock()
			t.lastReception = now
			t.lastReceptionMu.Unlock()

			decoder.Decode(buf[:n], dt)
		}
	}()
}

// LastTelemetryReception returns the duration since the last
// successfully received telemetry datagram, or a zero duration if none
// has ever arrived.
func (t *Transport) LastTelemetryReception() time.Duration {
	t.lastReceptionMu.Lock()
	last := t.lastReception
	t.lastReceptionMu.Unlock()
	if last.IsZero() {
		return 0
	}
	return time.Since(last)
}

// Close stops the telemetry receive loop and closes all four sockets,
// aggregating any close errors.
func (t *Transport) Close() error {
	close(t.stopCh)

	var result *multierror.Error
	result = multierror.Append(result, t.atConn.Close())
	result = multierror.Append(result, t.navdataConn.Close())
	result = multierror.Append(result, t.videoConn.Close())
	result = multierror.Append(result, t.controlConn.Close())
	return result.ErrorOrNil()
}
