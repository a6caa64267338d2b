package ardrone2

import (
	"errors"
	"time"

	"gobot.io/x/gobot"

	"github.com/parrotgo/ardrone2/ardrone"
)

var errNotConnected = errors.New("ardrone2: adaptor not connected")

// Event names published by Driver (SPEC_FULL.md §1.5).
const (
	Flying    = "flying"
	Landed    = "landed"
	Telemetry = "telemetry"
	Error     = "error"
)

const pollInterval = 100 * time.Millisecond

// Driver wraps a Controller and implements gobot.Driver, publishing
// flight-state and telemetry transitions onto its embedded Eventer so
// other Robot work functions can subscribe without polling the
// Controller directly.
type Driver struct {
	name       string
	connection gobot.Connection
	adaptor    *Adaptor
	gobot.Eventer

	stopCh    chan struct{}
	doneCh    chan struct{}
	wasFlying bool
}

// NewDriver wraps adaptor's Controller. adaptor must already be
// connected (i.e. used inside a gobot.Robot{} whose Connections include
// it) before Start is called.
func NewDriver(adaptor *Adaptor) *Driver {
	return &Driver{
		name:       "ARDrone2",
		connection: adaptor,
		adaptor:    adaptor,
		Eventer:    gobot.NewEventer(),
	}
}

func (d *Driver) Name() string             { return d.name }
func (d *Driver) SetName(n string)         { d.name = n }
func (d *Driver) Connection() gobot.Connection { return d.connection }

// Start begins polling the Controller for flight-state and telemetry
// changes, publishing each as a named event.
func (d *Driver) Start() error {
	d.AddEvent(Flying)
	d.AddEvent(Landed)
	d.AddEvent(Telemetry)
	d.AddEvent(Error)

	c := d.adaptor.Controller()
	if c == nil {
		return errNotConnected
	}

	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	go d.pollLoop(c)
	return nil
}

func (d *Driver) pollLoop(c *ardrone.Controller) {
	defer close(d.doneCh)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			flying := c.IsFlying()
			if flying != d.wasFlying {
				if flying {
					d.Publish(Flying, c.Telemetry())
				} else {
					d.Publish(Landed, c.Telemetry())
				}
				d.wasFlying = flying
			}
			d.Publish(Telemetry, c.Telemetry())
		}
	}
}

// Halt stops the poll loop. The underlying Controller is torn down by
// Adaptor.Finalize, not here — Driver does not own the connection.
func (d *Driver) Halt() error {
	if d.stopCh != nil {
		close(d.stopCh)
		<-d.doneCh
	}
	return nil
}

var _ gobot.Driver = (*Driver)(nil)
