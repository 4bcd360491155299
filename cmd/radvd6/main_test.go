package main

import (
	"flag"
	"net/netip"
	"testing"

	"github.com/sixbone/radvd6/internal/radconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		_, err := parseFlags([]string{"-h"})
		assert.ErrorIs(t, err, flag.ErrHelp)
	})

	t.Run("onlink_and_offlink_prefixes_in_order", func(t *testing.T) {
		cfg, err := parseFlags([]string{
			"-i", "eth0",
			"-p", "2001:db8::/64",
			"-a", "2001:db8:1::/64",
		})
		require.NoError(t, err)

		require.Len(t, cfg.Prefixes, 2)
		assert.Equal(t, netip.MustParseAddr("2001:db8::"), cfg.Prefixes[0].Addr)
		assert.True(t, cfg.Prefixes[0].OnLink)
		assert.Equal(t, netip.MustParseAddr("2001:db8:1::"), cfg.Prefixes[1].Addr)
		assert.False(t, cfg.Prefixes[1].OnLink)
	})

	t.Run("bare_address_without_slash_64", func(t *testing.T) {
		cfg, err := parseFlags([]string{"-i", "eth0", "-p", "2001:db8::"})
		require.NoError(t, err)

		require.Len(t, cfg.Prefixes, 1)
		assert.Equal(t, netip.MustParseAddr("2001:db8::"), cfg.Prefixes[0].Addr)
	})

	t.Run("wrong_prefix_length_rejected", func(t *testing.T) {
		_, err := parseFlags([]string{"-i", "eth0", "-p", "2001:db8::/48"})
		assert.Error(t, err)
	})

	t.Run("non_zero_host_bits_accepted_by_flag_parsing", func(t *testing.T) {
		// Syntactic parsing only checks the /64 length; the low-64-bits-zero
		// invariant is enforced by radconf.Prefix.Validate, not here.
		cfg, err := parseFlags([]string{"-i", "eth0", "-p", "2001:db8::1/64"})
		require.NoError(t, err)

		err = cfg.Validate()
		assert.ErrorContains(t, err, "only /64 prefixes are supported")
	})

	t.Run("rdnss_servers_in_order", func(t *testing.T) {
		cfg, err := parseFlags([]string{
			"-i", "eth0",
			"-p", "2001:db8::/64",
			"--rdnss", "2001:db8::53",
			"--rdnss", "2001:db8::54",
		})
		require.NoError(t, err)

		require.Len(t, cfg.RDNSS, 2)
		assert.Equal(t, netip.MustParseAddr("2001:db8::53"), cfg.RDNSS[0])
		assert.Equal(t, netip.MustParseAddr("2001:db8::54"), cfg.RDNSS[1])
	})

	t.Run("default_lifetime", func(t *testing.T) {
		cfg, err := parseFlags([]string{
			"-i", "eth0",
			"-p", "2001:db8::/64",
			"--default-lifetime", "1800",
		})
		require.NoError(t, err)

		assert.EqualValues(t, 1800, cfg.DefaultLifetime)
	})

	t.Run("default_lifetime_out_of_range", func(t *testing.T) {
		_, err := parseFlags([]string{
			"-i", "eth0",
			"-p", "2001:db8::/64",
			"--default-lifetime", "70000",
		})
		assert.Error(t, err)
	})

	t.Run("missing_ifname_caught_by_validate_not_parse", func(t *testing.T) {
		cfg, err := parseFlags([]string{"-p", "2001:db8::/64"})
		require.NoError(t, err)

		err = cfg.Validate()
		assert.ErrorContains(t, err, "IfName")
	})

	t.Run("too_many_prefixes", func(t *testing.T) {
		args := []string{"-i", "eth0"}
		for i := 0; i < radconf.MaxPrefixes+1; i++ {
			args = append(args, "-p", "2001:db8::/64")
		}

		cfg, err := parseFlags(args)
		require.NoError(t, err)

		err = cfg.Validate()
		assert.ErrorContains(t, err, "max is 8")
	})
}
