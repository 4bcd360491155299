package ndp

import "github.com/AdguardTeam/golibs/errors"

// Option is a single NDP option, decoded lazily from a byte slice.  Length is
// the wire value, in units of 8 octets, including the type and length
// octets themselves.
type Option struct {
	Type    uint8
	Length  uint8
	Payload []byte
}

// errOptionLength is returned by [WalkOptions] when an option's declared
// length is zero, would cross the remaining packet boundary, or leaves
// trailing bytes too short to hold another option (which can only happen if
// the last option didn't end exactly at the packet boundary).
const errOptionLength errors.Error = "ndp: invalid option length"

// WalkOptions decodes the NDP option list following a message header.  It
// applies the strict bounds-checking spec.md §4.2 and §9 require:
//
//   - every option must declare Length >= 1 (the "length == 0 always
//     invalid" resolution of spec.md §9's Open Question);
//   - an option must fit entirely within the remaining bytes;
//   - the last option decoded must end exactly at the end of b.
//
// On any violation it returns a nil slice and a non-nil error; the caller is
// expected to discard the enclosing packet silently, per spec.md §4.2/§7.
func WalkOptions(b []byte) (opts []Option, err error) {
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, errOptionLength
		}

		length := b[1]
		if length == 0 {
			return nil, errOptionLength
		}

		n := int(length) * optionUnitBytes
		if n > len(b) {
			return nil, errOptionLength
		}

		opts = append(opts, Option{
			Type:    b[0],
			Length:  length,
			Payload: b[2:n],
		})

		b = b[n:]
	}

	return opts, nil
}
