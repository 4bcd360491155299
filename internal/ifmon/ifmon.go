// Package ifmon tracks the liveness of the single network interface this
// daemon advertises on: its ifindex, MAC address, link-local address, and
// all-routers multicast membership, re-evaluating all four on every kernel
// link/address notification as well as once at startup.
//
// The "swap the package-level function for a test double" pattern here
// follows AdGuardHome's internal/aghnet/net.go (e.g. its netInterfaceAddrs
// variable).
package ifmon

import (
	"context"
	"log/slog"
	"net"
	"net/netip"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil"
)

// Variables and functions to substitute in tests.
var (
	netInterfaceByName = net.InterfaceByName
	netInterfaceAddrs  = (*net.Interface).Addrs
)

// State is the last-observed liveness snapshot of the configured
// interface. It is comparable, so a plain != detects any readiness-
// relevant change.
type State struct {
	// IfIndex is the interface's OS index, or 0 if unknown.
	IfIndex int

	// MAC is the interface's hardware address, or the zero value if
	// unknown.
	MAC [6]byte

	// LinkLocalAddr is the interface's fe80::/10 address, or the zero
	// value if unknown.
	LinkLocalAddr netip.Addr

	// Ok reports whether IfIndex, MAC, and LinkLocalAddr are all known and
	// all-routers multicast membership is active.
	Ok bool
}

// JoinResult distinguishes a fresh multicast join from rejoining a group the
// kernel already considered this socket a member of, per spec.md §4.1: a
// fresh join always forces an immediate RA, so an interface flap that
// preserves kernel membership but lost client-side state still results in a
// solicited advertisement.
type JoinResult int

const (
	JoinFailed JoinResult = iota
	JoinFresh
	JoinAlready
)

// MulticastJoiner is the subset of the ICMPv6 transport's behavior this
// package depends on. [internal/ndp.Endpoint] implements it.
type MulticastJoiner interface {
	// JoinAllRouters requests membership of the all-routers multicast
	// group scoped to ifIndex.
	JoinAllRouters(ifIndex int) (JoinResult, error)

	// BindToDevice binds the sending socket to the named interface.
	BindToDevice(ifname string) error
}

// Monitor owns the liveness state of one configured interface.
type Monitor struct {
	logger  *slog.Logger
	ifname  string
	joiner  MulticastJoiner
	onReady func()

	state State
}

// New returns a [*Monitor] for ifname. onReady is invoked whenever
// [Monitor.Refresh] observes a readiness transition; it is expected to
// schedule an immediate Router Advertisement. joiner must not be nil.
func New(logger *slog.Logger, ifname string, joiner MulticastJoiner, onReady func()) *Monitor {
	return &Monitor{
		logger:  logger,
		ifname:  ifname,
		joiner:  joiner,
		onReady: onReady,
	}
}

// State returns the last-observed liveness snapshot.
func (m *Monitor) State() State {
	return m.state
}

// MarkFailed forces the current state to not-ok without a full refresh. The
// event loop calls this after a send failure, per spec.md §4.2: a send
// failure is treated as loss of readiness, and normal service only resumes
// after the next successful [Monitor.Refresh].
func (m *Monitor) MarkFailed() {
	m.state.Ok = false
}

// Refresh re-evaluates interface readiness. It is idempotent: calling it
// repeatedly without any underlying change leaves the observable state (and
// hence whether onReady fires) unchanged, aside from the multicast/bind
// socket operations it (harmlessly) repeats. See spec.md §4.1 for the
// five-step algorithm implemented here.
func (m *Monitor) Refresh(ctx context.Context) {
	prev := m.state
	next := State{}

	iface, err := netInterfaceByName(m.ifname)
	if err != nil {
		m.logger.WarnContext(ctx, "resolving ifindex", "ifname", m.ifname, slogutil.KeyError, err)
		m.state = next
		return
	}
	next.IfIndex = iface.Index

	if len(iface.HardwareAddr) != 6 {
		m.logger.WarnContext(ctx, "interface has no usable mac", "ifname", m.ifname)
		m.state = next
		return
	}
	copy(next.MAC[:], iface.HardwareAddr)

	addrs, err := netInterfaceAddrs(iface)
	if err != nil {
		m.logger.WarnContext(ctx, "enumerating addresses", "ifname", m.ifname, slogutil.KeyError, err)
		m.state = next
		return
	}

	ll, ok := firstLinkLocal(addrs)
	if !ok {
		m.logger.WarnContext(ctx, "no link-local address yet", "ifname", m.ifname)
		m.state = next
		return
	}
	next.LinkLocalAddr = ll

	joined, err := m.joiner.JoinAllRouters(next.IfIndex)
	if err != nil {
		m.logger.WarnContext(ctx, "joining all-routers group", "ifname", m.ifname, slogutil.KeyError, err)
		m.state = next
		return
	}

	if err = m.joiner.BindToDevice(m.ifname); err != nil {
		m.logger.WarnContext(ctx, "binding to device", "ifname", m.ifname, slogutil.KeyError, err)
		m.state = next
		return
	}

	next.Ok = true
	m.state = next

	if next != prev || joined == JoinFresh {
		m.onReady()
	}
}

// firstLinkLocal returns the first fe80::/10 address among addrs, if any.
func firstLinkLocal(addrs []net.Addr) (a netip.Addr, ok bool) {
	for _, raw := range addrs {
		ipNet, isNet := raw.(*net.IPNet)
		if !isNet {
			continue
		}

		addr, err := netutil.IPToAddr(ipNet.IP, netutil.AddrFamilyIPv6)
		if err != nil {
			continue
		}

		if addr.Is6() && addr.IsLinkLocalUnicast() {
			return addr, true
		}
	}

	return netip.Addr{}, false
}
