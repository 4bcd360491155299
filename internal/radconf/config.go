// Package radconf defines the immutable configuration consumed by the core
// router-advertisement daemon.  Construction and validation of a [Config]
// from command-line flags is the caller's job (see cmd/radvd6); this package
// only owns the data model and its invariants.
package radconf

import (
	"fmt"
	"net/netip"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/AdguardTeam/golibs/validate"
)

// Hard caps from the wire format: a Prefix Information option's length field
// and an RDNSS option's length field must each fit in the packet this daemon
// is willing to build.
const (
	// MaxPrefixes is the maximum number of Prefix Information options
	// radvd6 will emit in a single Router Advertisement.
	MaxPrefixes = 8

	// MaxRDNSS is the maximum number of recursive DNS server addresses
	// radvd6 will emit in a single RDNSS option.
	MaxRDNSS = 3
)

// Prefix is a single on-link or off-link /64 prefix to advertise.
type Prefix struct {
	// Addr is the 128-bit prefix address.  Its low 64 bits must be zero.
	Addr netip.Addr

	// OnLink reports whether the ON_LINK flag is set in the emitted Prefix
	// Information option.  AUTO (SLAAC) is always set regardless of this
	// field.
	OnLink bool
}

// prefixLen is the only prefix length this daemon supports; see spec.md §1
// Non-goals.
const prefixLen = netutil.IPv6BitLen / 2

// Validate implements the [validate.Interface] interface for Prefix.
func (p Prefix) Validate() (err error) {
	if !p.Addr.Is6() {
		return fmt.Errorf("addr %s: %w", p.Addr, errors.Error("not an ipv6 address"))
	}

	b := p.Addr.As16()
	for _, oct := range b[prefixLen/8:] {
		if oct != 0 {
			return fmt.Errorf(
				"addr %s: low %d bits must be zero: only /%d prefixes are supported",
				p.Addr,
				netutil.IPv6BitLen-prefixLen,
				prefixLen,
			)
		}
	}

	return nil
}

// Config is the immutable, fully-validated configuration the core operates
// on.  It is constructed once at startup and never mutated afterwards; see
// spec.md §1 Non-goals (no dynamic reconfiguration).
type Config struct {
	// IfName is the OS-native name of the single configured network
	// interface.
	IfName string

	// Prefixes is the ordered sequence of prefixes to advertise via
	// Prefix Information options.  It must not be empty and must not
	// exceed [MaxPrefixes] entries.
	Prefixes []Prefix

	// RDNSS is the ordered sequence of recursive DNS server addresses to
	// advertise via an RDNSS option.  It may be empty, in which case no
	// RDNSS option is emitted.  It must not exceed [MaxRDNSS] entries.
	RDNSS []netip.Addr

	// DefaultLifetime is the router lifetime advertised in the RA header,
	// in seconds.  Zero means "not a default router".
	DefaultLifetime uint16
}

// type check
var _ validate.Interface = (*Config)(nil)

// Validate implements the [validate.Interface] interface for *Config.  It
// reports every violated invariant at once via [errors.Join].
func (c *Config) Validate() (err error) {
	if c == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		validate.NotEmpty("IfName", c.IfName),
	}

	switch {
	case len(c.Prefixes) == 0:
		errs = append(errs, fmt.Errorf("Prefixes: %w", errors.ErrEmptyValue))
	case len(c.Prefixes) > MaxPrefixes:
		errs = append(errs, fmt.Errorf(
			"Prefixes: got %d entries, max is %d",
			len(c.Prefixes),
			MaxPrefixes,
		))
	default:
		for i, p := range c.Prefixes {
			errs = validate.Append(errs, fmt.Sprintf("Prefixes[%d]", i), p)
		}
	}

	if len(c.RDNSS) > MaxRDNSS {
		errs = append(errs, fmt.Errorf(
			"RDNSS: got %d entries, max is %d",
			len(c.RDNSS),
			MaxRDNSS,
		))
	}

	for i, a := range c.RDNSS {
		if !a.Is6() {
			errs = append(errs, fmt.Errorf("RDNSS[%d]: %s is not an ipv6 address", i, a))
		}
	}

	return errors.Join(errs...)
}
