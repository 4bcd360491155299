package ndp

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"github.com/AdguardTeam/golibs/netutil"
	"github.com/sixbone/radvd6/internal/radconf"
)

// raHeaderLen is the length, in bytes, of the ICMPv6 header plus the fixed
// Router Advertisement body (type, code, checksum, cur hop limit, flags,
// router lifetime, reachable time, retrans timer).
const raHeaderLen = 16

// BuildAdvert serializes a Router Advertisement for cfg, sourced from the
// interface identified by mac.  The layout is, in order: the RA header, a
// Source Link-Layer Address option, one Prefix Information option per
// cfg.Prefixes entry, and (if cfg.RDNSS is non-empty) one RDNSS option. This
// mirrors the option ordering AdGuardHome's legacy
// internal/dhcpd/routeradv.go builds, minus the MTU option this spec
// doesn't call for and with multiple prefixes instead of one.
func BuildAdvert(cfg *radconf.Config, mac net.HardwareAddr) (data []byte, err error) {
	if err = netutil.ValidateMAC(mac); err != nil {
		return nil, fmt.Errorf("building advert: %w", err)
	}

	data = make([]byte, raHeaderLen)
	writeHeader(data, cfg.DefaultLifetime)

	data = append(data, sllaOption(mac)...)

	for _, p := range cfg.Prefixes {
		data = append(data, prefixInfoOption(p)...)
	}

	if len(cfg.RDNSS) > 0 {
		data = append(data, rdnssOption(cfg.RDNSS)...)
	}

	return data, nil
}

func writeHeader(data []byte, lifetime uint16) {
	data[0] = TypeRouterAdvertisement
	data[1] = 0 // code
	// data[2:4] checksum left zero; the kernel computes it for ip6:ipv6-icmp
	// sockets.
	data[4] = AdvCurHopLimit
	data[5] = 0 // flags: no M, no O
	binary.BigEndian.PutUint16(data[6:8], lifetime)
	binary.BigEndian.PutUint32(data[8:12], 0)  // reachable time
	binary.BigEndian.PutUint32(data[12:16], 0) // retrans timer
}

// sllaOption builds the Source Link-Layer Address option (type 1). Its
// length is fixed at 1 (8 octets total) since this daemon only advertises on
// Ethernet-style /6-octet MAC links.
func sllaOption(mac net.HardwareAddr) []byte {
	opt := make([]byte, optionUnitBytes)
	opt[0] = OptSourceLinkLayerAddress
	opt[1] = 1
	copy(opt[2:], mac)

	return opt
}

// prefixInfoOption builds a Prefix Information option (type 3, length 4)
// for a single /64 prefix.
func prefixInfoOption(p radconf.Prefix) []byte {
	const optLen = 4 * optionUnitBytes

	opt := make([]byte, optLen)
	opt[0] = OptPrefixInformation
	opt[1] = 4
	opt[2] = 64 // prefix length

	flags := byte(prefixFlagAuto)
	if p.OnLink {
		flags |= prefixFlagOnLink
	}
	opt[3] = flags

	binary.BigEndian.PutUint32(opt[4:8], uint32(AdvValidLifetime.Seconds()))
	binary.BigEndian.PutUint32(opt[8:12], uint32(AdvPreferredLifetime.Seconds()))
	binary.BigEndian.PutUint32(opt[12:16], 0) // reserved2

	addr := p.Addr.As16()
	copy(opt[16:32], addr[:])

	return opt
}

// rdnssOption builds an RDNSS option (type 25, RFC 8106) listing every
// configured recursive DNS server address in order.
func rdnssOption(servers []netip.Addr) []byte {
	length := 1 + 2*len(servers)
	opt := make([]byte, length*optionUnitBytes)

	opt[0] = OptRDNSS
	opt[1] = byte(length)
	binary.BigEndian.PutUint16(opt[2:4], 0) // reserved
	binary.BigEndian.PutUint32(opt[4:8], uint32(AdvRDNSSLifetime.Seconds()))

	for i, s := range servers {
		addr := s.As16()
		copy(opt[8+i*16:8+(i+1)*16], addr[:])
	}

	return opt
}
