// Package scheduler computes when the next Router Advertisement should be
// sent, jittering both the periodic and solicited cases per RFC 4861 §6.2
// and enforcing the minimum inter-RA spacing.
package scheduler

import (
	"time"

	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/sixbone/radvd6/internal/randsrc"
)

// RFC 4861 §6.2.1 and this daemon's own rate-limit constants.
const (
	// MinRtrAdvInterval and MaxRtrAdvInterval bound the uniformly-jittered
	// interval between unsolicited advertisements.
	MinRtrAdvInterval = 200 * time.Second
	MaxRtrAdvInterval = 600 * time.Second

	// MaxRADelayTime bounds the jitter applied to a solicited
	// advertisement.
	MaxRADelayTime = 500 * time.Millisecond

	// MinDelayBetweenRAs is the rate-limit floor enforced after every send.
	MinDelayBetweenRAs = 3000 * time.Millisecond
)

// Scheduler tracks the deadline for the next Router Advertisement.  It is
// not safe for concurrent use; the event loop is the only caller.
type Scheduler struct {
	clock timeutil.Clock
	rand  randsrc.Source

	// nextAdvert is the deadline at which an RA should be sent.
	nextAdvert time.Time

	// nextAdvertEarliest is the rate-limit floor enforced after each send.
	// It only ever moves forward.
	nextAdvertEarliest time.Time
}

// New returns a [*Scheduler] whose rate-limit floor starts at the clock's
// current time, per spec.md §3 (SchedulerState's next_advert_earliest is
// initially the startup time).
func New(clock timeutil.Clock, rand randsrc.Source) (s *Scheduler) {
	now := clock.Now()

	return &Scheduler{
		clock:              clock,
		rand:               rand,
		nextAdvert:         now,
		nextAdvertEarliest: now,
	}
}

// Schedule updates the next-advert deadline.  When nodelay is true (a valid
// RS was just received, or the interface just became ready), the deadline
// may only advance, never retard — a burst of solicitations converges on the
// earliest jittered draw among them. When nodelay is false (periodic
// rescheduling after a send), the deadline is replaced unconditionally.
func (s *Scheduler) Schedule(nodelay bool) {
	t := s.clock.Now()

	if nodelay {
		t = t.Add(time.Duration(s.rand.Intn(0, int(MaxRADelayTime))))
	} else {
		lo, hi := int(MinRtrAdvInterval/time.Second), int(MaxRtrAdvInterval/time.Second)
		t = t.Add(time.Duration(s.rand.Intn(lo, hi)) * time.Second)
	}

	if s.nextAdvertEarliest.After(t) {
		t = s.nextAdvertEarliest
	}

	if nodelay {
		if t.Before(s.nextAdvert) {
			s.nextAdvert = t
		}
	} else {
		s.nextAdvert = t
	}
}

// AfterSend records that an RA was just sent: it raises the rate-limit floor
// and reschedules the next unsolicited advertisement.
func (s *Scheduler) AfterSend() {
	s.nextAdvertEarliest = s.clock.Now().Add(MinDelayBetweenRAs)
	s.Schedule(false)
}

// NextAdvert returns the current deadline for the next Router Advertisement.
func (s *Scheduler) NextAdvert() time.Time {
	return s.nextAdvert
}

// Due reports whether the next-advert deadline has passed.
func (s *Scheduler) Due() bool {
	return !s.clock.Now().Before(s.nextAdvert)
}

// Timeout returns the non-negative duration the event loop should wait
// before the next advert is due.
func (s *Scheduler) Timeout() time.Duration {
	d := s.nextAdvert.Sub(s.clock.Now())
	if d < 0 {
		return 0
	}

	return d
}
