package ndp

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"syscall"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/sixbone/radvd6/internal/ifmon"
	"github.com/sixbone/radvd6/internal/radconf"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv6"
)

// rsBufferSize is large enough for any Router Solicitation this daemon
// accepts: the minimum IPv6 MTU, which bounds every option combination
// [ValidateRS] can parse.
const rsBufferSize = 1280

// errNotReady is returned by [Endpoint.SendAdvert] when asked to send while
// the interface isn't ready, per spec.md §4.2 ("never send while not ready").
const errNotReady errors.Error = "ndp: refusing to send advertisement: interface not ready"

// Endpoint is the raw ICMPv6 transport: a single socket used both to send
// Router Advertisements and to receive Router Solicitations, set up the way
// AdGuardHome's legacy internal/dhcpd/routeradv.go configures its RA socket
// (SetHopLimit/SetMulticastHopLimit to 255, ipv6.ControlMessage carrying
// Src/IfIndex), extended with an [ipv6.ICMPFilter] so the kernel never
// delivers anything but Router Solicitations to this process, and with
// inbound ancillary hop-limit data so [Endpoint.PollRS] can reject spoofed
// solicitations per RFC 4861 §6.1.1.
type Endpoint struct {
	logger *slog.Logger
	conn   *icmp.PacketConn
	pconn  *ipv6.PacketConn

	// joined tracks, per ifIndex, whether this Endpoint has already
	// successfully joined the all-routers group. The kernel rejects a
	// repeated join on the same socket with EADDRINUSE, which
	// [Endpoint.JoinAllRouters] reports as [ifmon.JoinAlready]; this map
	// additionally makes a successful join report [ifmon.JoinFresh] only
	// the first time per interface index.
	joined map[int]bool
}

// type check
var _ ifmon.MulticastJoiner = (*Endpoint)(nil)

// NewEndpoint opens and configures the ICMPv6 socket. The returned Endpoint
// is not bound to any particular interface; call [Endpoint.BindToDevice]
// before sending or receiving.
func NewEndpoint(logger *slog.Logger) (e *Endpoint, err error) {
	conn, err := icmp.ListenPacket("ip6:ipv6-icmp", "::")
	if err != nil {
		return nil, fmt.Errorf("listening icmpv6: %w", err)
	}

	pconn := conn.IPv6PacketConn()

	defer func() {
		if err != nil {
			err = errors.WithDeferred(err, conn.Close())
		}
	}()

	if err = pconn.SetHopLimit(transportHopLimit); err != nil {
		return nil, fmt.Errorf("setting hop limit: %w", err)
	}

	if err = pconn.SetMulticastHopLimit(transportHopLimit); err != nil {
		return nil, fmt.Errorf("setting multicast hop limit: %w", err)
	}

	if err = pconn.SetMulticastLoopback(true); err != nil {
		return nil, fmt.Errorf("enabling multicast loopback: %w", err)
	}

	if err = pconn.SetControlMessage(ipv6.FlagHopLimit, true); err != nil {
		return nil, fmt.Errorf("requesting hop-limit ancillary data: %w", err)
	}

	filter := &ipv6.ICMPFilter{}
	filter.SetAll(true)
	filter.Accept(ipv6.ICMPType(TypeRouterSolicitation))
	if err = pconn.SetICMPFilter(filter); err != nil {
		return nil, fmt.Errorf("setting icmp filter: %w", err)
	}

	return &Endpoint{
		logger: logger,
		conn:   conn,
		pconn:  pconn,
		joined: map[int]bool{},
	}, nil
}

// Close closes the underlying socket.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}

// FD returns the socket's file descriptor, for multiplexing in the event
// loop's poll set.
func (e *Endpoint) FD() (fd int, err error) {
	rc, err := e.pconn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("getting raw conn: %w", err)
	}

	cerr := rc.Control(func(sysfd uintptr) { fd = int(sysfd) })
	if cerr != nil {
		return 0, fmt.Errorf("reading fd: %w", cerr)
	}

	return fd, nil
}

// JoinAllRouters implements the [ifmon.MulticastJoiner] interface for
// *Endpoint.
func (e *Endpoint) JoinAllRouters(ifIndex int) (result ifmon.JoinResult, err error) {
	iface, err := net.InterfaceByIndex(ifIndex)
	if err != nil {
		return ifmon.JoinFailed, fmt.Errorf("resolving interface %d: %w", ifIndex, err)
	}

	group := &net.UDPAddr{IP: net.ParseIP(AllRoutersMulticast)}
	if err = e.pconn.JoinGroup(iface, group); err != nil {
		if !errors.Is(err, syscall.EADDRINUSE) {
			return ifmon.JoinFailed, fmt.Errorf("joining all-routers group: %w", err)
		}

		// EADDRINUSE: this socket is already a member of the group on
		// ifIndex.
		e.joined[ifIndex] = true

		return ifmon.JoinAlready, nil
	}

	if e.joined[ifIndex] {
		return ifmon.JoinAlready, nil
	}

	e.joined[ifIndex] = true

	return ifmon.JoinFresh, nil
}

// SendAdvert builds and sends a single unsolicited-style Router
// Advertisement for cfg, sourced from state. It refuses if state reports the
// interface isn't ready.
func (e *Endpoint) SendAdvert(cfg *radconf.Config, state ifmon.State) error {
	if !state.Ok {
		return errNotReady
	}

	data, err := BuildAdvert(cfg, net.HardwareAddr(state.MAC[:]))
	if err != nil {
		return fmt.Errorf("building advertisement: %w", err)
	}

	src := net.IP(state.LinkLocalAddr.AsSlice())
	cm := &ipv6.ControlMessage{
		HopLimit: transportHopLimit,
		Src:      src,
		IfIndex:  state.IfIndex,
	}
	dst := &net.UDPAddr{IP: net.ParseIP(AllNodesMulticast)}

	if _, err = e.pconn.WriteTo(data, cm, dst); err != nil {
		return fmt.Errorf("sending advertisement: %w", err)
	}

	return nil
}

// PollRS reads one pending datagram and reports whether it is an accepted
// Router Solicitation (i.e. one that should cause a solicited Router
// Advertisement to be scheduled). It is meant to be called by the event loop
// only after the socket fd is reported readable; it does not block waiting
// for one if none is pending aside from the one read syscall.
func (e *Endpoint) PollRS() (accept bool, err error) {
	buf := make([]byte, rsBufferSize)

	n, cm, peer, err := e.pconn.ReadFrom(buf)
	if err != nil {
		return false, fmt.Errorf("reading: %w", err)
	}

	hopLimit := -1
	if cm != nil {
		hopLimit = cm.HopLimit
	}

	if hopLimit != transportHopLimit {
		e.logger.Debug("dropping rs: unexpected hop limit", "hop_limit", hopLimit)

		return false, nil
	}

	udpAddr, ok := peer.(*net.UDPAddr)
	if !ok {
		return false, nil
	}

	src, ok := netip.AddrFromSlice(udpAddr.IP)
	if !ok {
		return false, nil
	}

	return ValidateRS(buf[:n], src.Unmap()), nil
}
