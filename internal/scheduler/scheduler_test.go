package scheduler_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/testutil/faketime"
	"github.com/sixbone/radvd6/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource is a [randsrc.Source] that always returns lo, the smallest
// value in range, making schedule deadlines deterministic.
type fixedSource struct{}

func (fixedSource) Intn(lo, hi int) int {
	if hi <= lo {
		panic("invalid range")
	}

	return lo
}

// maxSource is a [randsrc.Source] that always returns hi-1, the largest
// value in range.
type maxSource struct{}

func (maxSource) Intn(lo, hi int) int {
	if hi <= lo {
		panic("invalid range")
	}

	return hi - 1
}

func TestScheduler_unsolicited(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &faketime.Clock{OnNow: func() time.Time { return start }}

	s := scheduler.New(clock, fixedSource{})
	s.Schedule(false)

	assert.Equal(t, start.Add(scheduler.MinRtrAdvInterval), s.NextAdvert())
}

func TestScheduler_solicitedAdvancesOnly(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &faketime.Clock{OnNow: func() time.Time { return now }}

	s := scheduler.New(clock, maxSource{})
	// Seed a far-future unsolicited deadline.
	s.Schedule(false)
	farFuture := s.NextAdvert()
	require.True(t, farFuture.After(now))

	// A solicited RA with zero jitter should pull the deadline back to "now".
	s2 := scheduler.New(clock, fixedSource{})
	s2.Schedule(false)
	s2.Schedule(true)
	assert.True(t, !s2.NextAdvert().After(now.Add(scheduler.MinRtrAdvInterval)))

	// Solicited scheduling never retards an earlier deadline: schedule an
	// earlier one first, then a later solicited jitter must not move it back.
	s.Schedule(true)
	earlier := s.NextAdvert()
	require.True(t, earlier.Before(farFuture))

	now = now.Add(time.Second)
	s.Schedule(true)
	assert.Equal(t, earlier, s.NextAdvert())
}

func TestScheduler_rateLimitFloor(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &faketime.Clock{OnNow: func() time.Time { return now }}

	s := scheduler.New(clock, fixedSource{})
	s.AfterSend()

	// Immediately after a send, even a solicited RA cannot be scheduled
	// before the rate-limit floor.
	s.Schedule(true)
	assert.False(t, s.NextAdvert().Before(now.Add(scheduler.MinDelayBetweenRAs)))
}

func TestScheduler_dueAndTimeout(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &faketime.Clock{OnNow: func() time.Time { return now }}

	s := scheduler.New(clock, fixedSource{})
	s.Schedule(false)

	assert.False(t, s.Due())
	assert.True(t, s.Timeout() > 0)

	now = now.Add(time.Hour)
	assert.True(t, s.Due())
	assert.Equal(t, time.Duration(0), s.Timeout())
}
