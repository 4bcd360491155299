//go:build linux

package ndp

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// BindToDevice implements the [github.com/sixbone/radvd6/internal/ifmon.MulticastJoiner]
// interface for *Endpoint using SO_BINDTODEVICE, restricting the socket to
// the named interface the way AdGuardHome's internal/ipset package scopes
// its own raw sockets to a single link via netlink/netfilter attributes
// rather than a generic cross-platform API.
func (e *Endpoint) BindToDevice(ifname string) error {
	rc, err := e.pconn.SyscallConn()
	if err != nil {
		return fmt.Errorf("getting raw conn: %w", err)
	}

	var opErr error
	cerr := rc.Control(func(fd uintptr) {
		opErr = unix.BindToDevice(int(fd), ifname)
	})
	if cerr != nil {
		return fmt.Errorf("control: %w", cerr)
	}

	if opErr != nil {
		return fmt.Errorf("SO_BINDTODEVICE %s: %w", ifname, opErr)
	}

	return nil
}
