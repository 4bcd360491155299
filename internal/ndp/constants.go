// Package ndp implements the wire-level pieces of the Neighbor Discovery
// Protocol this daemon needs: Router Advertisement composition, Router
// Solicitation validation, and the raw ICMPv6 transport, grounded in the
// same golang.org/x/net/icmp and golang.org/x/net/ipv6 APIs AdGuardHome's
// legacy DHCPv6 Router Advertisement sender used (see
// internal/dhcpd/routeradv.go in the retrieved AdGuardHome source).
package ndp

import "time"

// ICMPv6 message types relevant to this daemon.  See RFC 4861 §4.
const (
	TypeRouterSolicitation  = 133
	TypeRouterAdvertisement = 134
)

// Option types emitted or accepted on the wire.  See RFC 4861 §4.6 and
// RFC 8106 §5.1.
const (
	OptSourceLinkLayerAddress = 1
	OptPrefixInformation      = 3
	OptRDNSS                  = 25
)

// Router Advertisement field defaults, per spec.md §3.
const (
	// AdvValidLifetime is the Valid Lifetime advertised in every Prefix
	// Information option.
	AdvValidLifetime = 86400 * time.Second

	// AdvPreferredLifetime is the Preferred Lifetime advertised in every
	// Prefix Information option.
	AdvPreferredLifetime = 14400 * time.Second

	// AdvCurHopLimit is the Cur Hop Limit field of the RA header.
	AdvCurHopLimit = 64

	// AdvRDNSSLifetime is the Lifetime field of the RDNSS option.
	AdvRDNSSLifetime = 1200 * time.Second
)

// Prefix Information option flags, RFC 4861 §4.6.2.
const (
	prefixFlagOnLink = 0x80
	prefixFlagAuto   = 0x40
)

// AllRoutersMulticast and AllNodesMulticast are the well-known multicast
// addresses this daemon joins (the former) and sends to (the latter).
const (
	AllRoutersMulticast = "ff02::2"
	AllNodesMulticast   = "ff02::1"
)

// transportHopLimit is the IPv6 hop limit every Router Solicitation and
// Router Advertisement datagram must carry, per RFC 4861 §4.1 and §4.2: it
// lets a receiver reject off-link spoofed packets outright, since a genuine
// neighbor's datagram can never arrive with a smaller value. This is
// distinct from [AdvCurHopLimit], the advisory hop limit advertised to hosts
// in the RA body.
const transportHopLimit = 255

// optionUnitBytes is the unit (8 octets) in which an option's Length field
// is expressed.
const optionUnitBytes = 8
