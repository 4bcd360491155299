//go:build !linux

package ndp

import "github.com/AdguardTeam/golibs/errors"

// errBindUnsupported mirrors internal/ifmon's notify_others.go: this daemon
// only implements the Linux SO_BINDTODEVICE restriction.
const errBindUnsupported errors.Error = "ndp: binding to device not implemented on this platform"

// BindToDevice reports errBindUnsupported on non-Linux platforms.
func (e *Endpoint) BindToDevice(string) error {
	return errBindUnsupported
}
