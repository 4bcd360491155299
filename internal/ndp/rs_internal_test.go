package ndp

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rsHeader() []byte {
	return []byte{TypeRouterSolicitation, 0, 0, 0, 0, 0, 0, 0}
}

func TestValidateRS(t *testing.T) {
	src := netip.MustParseAddr("fe80::1")

	t.Run("bare", func(t *testing.T) {
		assert.True(t, ValidateRS(rsHeader(), src))
	})

	t.Run("with_slla_and_known_source", func(t *testing.T) {
		b := append(rsHeader(), 1, 1, 0x02, 0x00, 0x00, 0x00, 0x00, 0x01)
		assert.True(t, ValidateRS(b, src))
	})

	t.Run("with_slla_and_unspecified_source", func(t *testing.T) {
		b := append(rsHeader(), 1, 1, 0x02, 0x00, 0x00, 0x00, 0x00, 0x01)
		assert.False(t, ValidateRS(b, netip.IPv6Unspecified()))
	})

	t.Run("without_slla_and_unspecified_source", func(t *testing.T) {
		assert.True(t, ValidateRS(rsHeader(), netip.IPv6Unspecified()))
	})

	t.Run("too_short", func(t *testing.T) {
		assert.False(t, ValidateRS(rsHeader()[:4], src))
	})

	t.Run("wrong_type", func(t *testing.T) {
		b := rsHeader()
		b[0] = TypeRouterAdvertisement
		assert.False(t, ValidateRS(b, src))
	})

	t.Run("wrong_code", func(t *testing.T) {
		b := rsHeader()
		b[1] = 1
		assert.False(t, ValidateRS(b, src))
	})

	t.Run("malformed_options", func(t *testing.T) {
		b := append(rsHeader(), 1, 0, 0, 0, 0, 0, 0, 0)
		assert.False(t, ValidateRS(b, src))
	})
}
