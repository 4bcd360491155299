package ndp

import "net/netip"

// rsHeaderLen is the length, in bytes, of the ICMPv6 header plus the fixed
// Router Solicitation body (type, code, checksum, reserved).
const rsHeaderLen = 8

// ValidateRS reports whether data, the ICMPv6 payload of a datagram already
// known to carry hop limit 255 (checked by the caller against ancillary
// data, since that isn't part of the payload itself), is a well-formed
// Router Solicitation from src per RFC 4861 §4.1 and §6.1.1.
//
// It rejects packets shorter than the RS header, wrong type/code, malformed
// option lists (see [WalkOptions]), and a Source Link-Layer Address option
// present alongside an unspecified source address.
func ValidateRS(data []byte, src netip.Addr) (ok bool) {
	if len(data) < rsHeaderLen {
		return false
	}

	if data[0] != TypeRouterSolicitation || data[1] != 0 {
		return false
	}

	opts, err := WalkOptions(data[rsHeaderLen:])
	if err != nil {
		return false
	}

	for _, o := range opts {
		if o.Type == OptSourceLinkLayerAddress && src.IsUnspecified() {
			return false
		}
	}

	return true
}
