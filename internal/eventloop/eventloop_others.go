//go:build !linux

package eventloop

import (
	"context"
	"log/slog"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/sixbone/radvd6/internal/ifmon"
	"github.com/sixbone/radvd6/internal/radconf"
	"github.com/sixbone/radvd6/internal/scheduler"
)

// Endpoint mirrors the Linux build's interface so callers compile on every
// platform; only Run's behavior differs.
type Endpoint interface {
	FD() (int, error)
	PollRS() (bool, error)
	SendAdvert(cfg *radconf.Config, state ifmon.State) error
}

// errUnsupported mirrors internal/ifmon and internal/ndp: this daemon's
// poll(2)+eventfd event loop is only implemented on Linux.
const errUnsupported errors.Error = "eventloop: not implemented on this platform"

// Loop is a non-functional stand-in on non-Linux platforms.
type Loop struct{}

// New returns a [*Loop] whose Run always fails.
func New(
	*slog.Logger,
	*radconf.Config,
	Endpoint,
	ifmon.Notifier,
	*ifmon.Monitor,
	*scheduler.Scheduler,
) *Loop {
	return &Loop{}
}

// Run reports errUnsupported on non-Linux platforms.
func (l *Loop) Run(context.Context) error {
	return errUnsupported
}
