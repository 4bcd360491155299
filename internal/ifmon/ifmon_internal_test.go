package ifmon

import (
	"context"
	"net"
	"testing"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJoiner is a [MulticastJoiner] test double.
type fakeJoiner struct {
	joinResult JoinResult
	joinErr    error
	bindErr    error
}

func (j *fakeJoiner) JoinAllRouters(int) (JoinResult, error) { return j.joinResult, j.joinErr }
func (j *fakeJoiner) BindToDevice(string) error              { return j.bindErr }

func withFakeInterface(t *testing.T, iface *net.Interface, addrs []net.Addr, err error) {
	t.Helper()

	origByName, origAddrs := netInterfaceByName, netInterfaceAddrs
	t.Cleanup(func() {
		netInterfaceByName, netInterfaceAddrs = origByName, origAddrs
	})

	netInterfaceByName = func(name string) (*net.Interface, error) { return iface, err }
	netInterfaceAddrs = func(*net.Interface) ([]net.Addr, error) { return addrs, nil }
}

func TestMonitor_Refresh_readinessTransitionSchedulesRA(t *testing.T) {
	iface := &net.Interface{
		Index:        7,
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
	}
	withFakeInterface(t, iface, addrs, nil)

	var scheduled int
	joiner := &fakeJoiner{joinResult: JoinFresh}
	m := New(slogutil.NewDiscardLogger(), "eth0", joiner, func() { scheduled++ })

	m.Refresh(context.Background())

	require.True(t, m.State().Ok)
	assert.Equal(t, 7, m.State().IfIndex)
	assert.Equal(t, 1, scheduled)
}

func TestMonitor_Refresh_idempotentNoRepeatSchedule(t *testing.T) {
	iface := &net.Interface{
		Index:        7,
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
	}
	withFakeInterface(t, iface, addrs, nil)

	var scheduled int
	joiner := &fakeJoiner{joinResult: JoinAlready}
	m := New(slogutil.NewDiscardLogger(), "eth0", joiner, func() { scheduled++ })

	m.Refresh(context.Background())
	m.Refresh(context.Background())

	assert.Equal(t, 1, scheduled)
}

func TestMonitor_Refresh_noLinkLocalNotOk(t *testing.T) {
	iface := &net.Interface{
		Index:        7,
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	withFakeInterface(t, iface, nil, nil)

	joiner := &fakeJoiner{joinResult: JoinFresh}
	m := New(slogutil.NewDiscardLogger(), "eth0", joiner, func() {})

	m.Refresh(context.Background())

	assert.False(t, m.State().Ok)
}

func TestMonitor_HandleEvent(t *testing.T) {
	iface := &net.Interface{
		Index:        7,
		HardwareAddr: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
	}
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
	}
	withFakeInterface(t, iface, addrs, nil)

	joiner := &fakeJoiner{joinResult: JoinAlready}
	m := New(slogutil.NewDiscardLogger(), "eth0", joiner, func() {})
	m.Refresh(context.Background()) // becomes ok

	refreshes := 0
	origByName := netInterfaceByName
	netInterfaceByName = func(name string) (*net.Interface, error) {
		refreshes++
		return origByName(name)
	}
	t.Cleanup(func() { netInterfaceByName = origByName })

	// An address-added event on the tracked interface while already ok must
	// not trigger a refresh.
	m.HandleEvent(context.Background(), Event{Kind: EventAddrAdded, IfIndex: 7})
	assert.Equal(t, 0, refreshes)

	// An address-removed event on the tracked interface while ok must.
	m.HandleEvent(context.Background(), Event{Kind: EventAddrRemoved, IfIndex: 7})
	assert.Equal(t, 1, refreshes)
}
