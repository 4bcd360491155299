//go:build !linux

package ifmon

import "github.com/AdguardTeam/golibs/errors"

// errUnsupported is returned by DialNotifier on platforms this daemon
// doesn't provide a kernel notification transport for. spec.md §6.2 treats
// the concrete notification protocol as an implementation choice; radvd6
// only implements the Linux rtnetlink one, matching how AdGuardHome scopes
// several of its network-introspection helpers (e.g.
// internal/aghnet/arpdb_windows.go) to a single OS via build tags.
const errUnsupported errors.Error = "ifmon: kernel notification channel not implemented on this platform"

// DialNotifier reports errUnsupported on non-Linux platforms.
func DialNotifier() (n Notifier, err error) {
	return nil, errUnsupported
}
