//go:build linux

package ifmon

import (
	"encoding/binary"
	"fmt"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// rtnetlink multicast group numbers and message types this daemon
// subscribes to and decodes. See rtnetlink(7). mdlayher/netlink's Config.
// Groups is the sockaddr_nl.nl_groups bitmask, so group N contributes bit
// N-1; this mirrors how AdGuardHome's internal/ipset/ipset_linux.go builds
// raw netlink/netfilter requests with github.com/mdlayher/netlink directly
// rather than a higher-level rtnetlink client.
const (
	rtnlgrpLink       = 1
	rtnlgrpIPv6IfAddr = 9

	rtmNewLink = 16
	rtmDelLink = 17
	rtmNewAddr = 20
	rtmDelAddr = 21

	// ifIndexOffset is the byte offset of the interface index within both
	// ifinfomsg (link messages) and ifaddrmsg (address messages): each
	// struct places a 4-byte little-endian index immediately after a
	// 4-byte family/pad/type header.
	ifIndexOffset = 4
)

func groupMask() uint32 {
	return 1<<(rtnlgrpLink-1) | 1<<(rtnlgrpIPv6IfAddr-1)
}

// rtnlNotifier is the Linux [Notifier] implementation, backed by a netlink
// socket subscribed to RTNLGRP_LINK and RTNLGRP_IPV6_IFADDR.
type rtnlNotifier struct {
	conn *netlink.Conn
}

// type check
var _ Notifier = (*rtnlNotifier)(nil)

// DialNotifier opens the kernel notification channel used in production.
func DialNotifier() (n Notifier, err error) {
	conn, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{Groups: groupMask()})
	if err != nil {
		return nil, fmt.Errorf("dialing rtnetlink: %w", err)
	}

	return &rtnlNotifier{conn: conn}, nil
}

// FD implements the [Notifier] interface for *rtnlNotifier.
func (n *rtnlNotifier) FD() (fd int, err error) {
	rc, err := n.conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("getting raw conn: %w", err)
	}

	cerr := rc.Control(func(sysfd uintptr) { fd = int(sysfd) })
	if cerr != nil {
		return 0, fmt.Errorf("reading fd: %w", cerr)
	}

	return fd, nil
}

// Receive implements the [Notifier] interface for *rtnlNotifier.
func (n *rtnlNotifier) Receive() (events []Event, err error) {
	msgs, err := n.conn.Receive()
	if err != nil {
		return nil, fmt.Errorf("receiving rtnetlink messages: %w", err)
	}

	for _, msg := range msgs {
		ev, ok := decodeEvent(msg)
		if ok {
			events = append(events, ev)
		}
	}

	return events, nil
}

// Close implements the [Notifier] interface for *rtnlNotifier.
func (n *rtnlNotifier) Close() (err error) {
	return n.conn.Close()
}

// decodeEvent decodes one rtnetlink message into an [Event]. Messages of
// types this daemon doesn't consume are reported as ok=false and silently
// skipped, per spec.md §4.1 ("spurious notifications are cheap and safe").
func decodeEvent(msg netlink.Message) (ev Event, ok bool) {
	var kind EventKind

	switch msg.Header.Type {
	case rtmNewLink, rtmDelLink:
		kind = EventLinkChange
	case rtmNewAddr:
		kind = EventAddrAdded
	case rtmDelAddr:
		kind = EventAddrRemoved
	default:
		return Event{}, false
	}

	if len(msg.Data) < ifIndexOffset+4 {
		return Event{}, false
	}

	ifIndex := int(binary.LittleEndian.Uint32(msg.Data[ifIndexOffset : ifIndexOffset+4]))

	return Event{Kind: kind, IfIndex: ifIndex}, true
}
