//go:build linux

// Package eventloop implements the single-threaded, poll-based wakeup loop
// that ties the interface monitor, ICMPv6 transport, and scheduler together.
// Its use of an eventfd to interrupt a blocking poll(2) on context
// cancellation is grounded in the other_examples/ uping listener's loop
// (tools/uping/pkg/uping/listener.go in the retrieved doublezero source).
package eventloop

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/sixbone/radvd6/internal/ifmon"
	"github.com/sixbone/radvd6/internal/radconf"
	"github.com/sixbone/radvd6/internal/scheduler"
	"golang.org/x/sys/unix"
)

// Endpoint is the subset of [github.com/sixbone/radvd6/internal/ndp.Endpoint]
// this package depends on.
type Endpoint interface {
	FD() (int, error)
	PollRS() (bool, error)
	SendAdvert(cfg *radconf.Config, state ifmon.State) error
}

// Loop drives the daemon's steady-state operation. It is not safe for
// concurrent use; it owns no goroutines of its own besides the one that
// watches ctx.Done() to interrupt a blocked poll(2).
type Loop struct {
	logger   *slog.Logger
	cfg      *radconf.Config
	endpoint Endpoint
	notifier ifmon.Notifier
	monitor  *ifmon.Monitor
	sched    *scheduler.Scheduler
}

// New returns a [*Loop]. None of the arguments may be nil.
func New(
	logger *slog.Logger,
	cfg *radconf.Config,
	endpoint Endpoint,
	notifier ifmon.Notifier,
	monitor *ifmon.Monitor,
	sched *scheduler.Scheduler,
) *Loop {
	return &Loop{
		logger:   logger,
		cfg:      cfg,
		endpoint: endpoint,
		notifier: notifier,
		monitor:  monitor,
		sched:    sched,
	}
}

// Run executes the wakeup algorithm of spec.md §4.5 until ctx is canceled or
// the notification channel reports a fatal error. It performs one initial
// [ifmon.Monitor.Refresh] before entering the poll loop.
func (l *Loop) Run(ctx context.Context) (err error) {
	icmpFD, err := l.endpoint.FD()
	if err != nil {
		return fmt.Errorf("getting icmp fd: %w", err)
	}

	notifFD, err := l.notifier.FD()
	if err != nil {
		return fmt.Errorf("getting notifier fd: %w", err)
	}

	// efd lets ctx cancellation interrupt a blocked poll(2) without a race:
	// the watcher goroutine below only ever writes to it.
	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}
	defer func() { _ = unix.Close(efd) }()

	go func() {
		<-ctx.Done()

		var one [8]byte
		binary.LittleEndian.PutUint64(one[:], 1)
		_, _ = unix.Write(efd, one[:])
	}()

	l.monitor.Refresh(ctx)

	pfds := []unix.PollFd{
		{Fd: int32(icmpFD), Events: unix.POLLIN},
		{Fd: int32(notifFD), Events: unix.POLLIN},
		{Fd: int32(efd), Events: unix.POLLIN},
	}

	for {
		timeout := -1
		if l.monitor.State().Ok {
			timeout = pollTimeoutMs(l.sched.Timeout())
		}

		for i := range pfds {
			pfds[i].Revents = 0
		}

		_, perr := unix.Poll(pfds, timeout)
		if perr != nil {
			if perr == unix.EINTR {
				continue
			}

			return fmt.Errorf("poll: %w", perr)
		}

		if pfds[2].Revents&unix.POLLIN != 0 {
			return ctx.Err()
		}

		if pfds[0].Revents&unix.POLLIN != 0 {
			l.handleRS(ctx)
		}

		if pfds[1].Revents&unix.POLLIN != 0 {
			if err = l.handleNotifications(ctx); err != nil {
				return err
			}
		}

		if l.monitor.State().Ok && l.sched.Due() {
			l.sendAdvert(ctx)
		}
	}
}

func (l *Loop) handleRS(ctx context.Context) {
	accept, err := l.endpoint.PollRS()
	if err != nil {
		l.logger.WarnContext(ctx, "reading router solicitation", slogutil.KeyError, err)

		return
	}

	if accept {
		l.sched.Schedule(true)
	}
}

func (l *Loop) handleNotifications(ctx context.Context) (err error) {
	events, err := l.notifier.Receive()
	if err != nil {
		return fmt.Errorf("receiving notifications: %w", err)
	}

	for _, ev := range events {
		l.monitor.HandleEvent(ctx, ev)
	}

	return nil
}

// sendAdvert sends the scheduled Router Advertisement. A failure is treated
// as loss of interface readiness, per spec.md §4.2; [ifmon.Monitor.Refresh]
// on the next notification or retry is what restores it.
func (l *Loop) sendAdvert(ctx context.Context) {
	state := l.monitor.State()

	if err := l.endpoint.SendAdvert(l.cfg, state); err != nil {
		l.logger.WarnContext(ctx, "sending advertisement", slogutil.KeyError, err)
		l.monitor.MarkFailed()

		return
	}

	l.sched.AfterSend()
}

// pollTimeoutMs converts d into a poll(2) millisecond timeout, clamped to a
// non-negative, 32-bit-representable value.
func pollTimeoutMs(d time.Duration) int {
	const maxMs = int(^uint32(0) >> 1)

	if d <= 0 {
		return 0
	}

	ms := d / time.Millisecond
	if ms > time.Duration(maxMs) {
		return maxMs
	}

	return int(ms)
}
