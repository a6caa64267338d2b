// Package ardrone2 completes the gobot platform shape the teacher
// package (gobot.io/x/gobot/platforms/parrot/bebop/client) only ever
// supplied the client half of — see SPEC_FULL.md §1.5.
package ardrone2

import (
	"gobot.io/x/gobot"

	"github.com/parrotgo/ardrone2/ardrone"
)

// Adaptor implements gobot.Adaptor, owning the Controller's connection
// lifecycle for use inside a gobot.Robot{} work/event loop.
type Adaptor struct {
	name string

	sessionID, userID, appID string
	opts                     []ardrone.Option

	controller *ardrone.Controller
}

// NewAdaptor builds an Adaptor. The identity triple and Controller
// options are stashed until Connect, matching the teacher's own
// two-phase construct-then-Connect() shape (client.New() / Bebop.Connect()).
func NewAdaptor(sessionID, userID, appID string, opts ...ardrone.Option) *Adaptor {
	return &Adaptor{
		name:      "ARDrone2",
		sessionID: sessionID,
		userID:    userID,
		appID:     appID,
		opts:      opts,
	}
}

func (a *Adaptor) Name() string     { return a.name }
func (a *Adaptor) SetName(n string) { a.name = n }

// Connect dials the aircraft and runs the full construction-time
// config sequence (ardrone.New).
func (a *Adaptor) Connect() error {
	c, err := ardrone.New(a.sessionID, a.userID, a.appID, a.opts...)
	if err != nil {
		return err
	}
	a.controller = c
	return nil
}

// Finalize tears the Controller down.
func (a *Adaptor) Finalize() error {
	if a.controller == nil {
		return nil
	}
	return a.controller.Close()
}

// Controller exposes the underlying facade to Driver and to callers
// that need direct access beyond the gobot.Driver surface.
func (a *Adaptor) Controller() *ardrone.Controller { return a.controller }

var _ gobot.Adaptor = (*Adaptor)(nil)
