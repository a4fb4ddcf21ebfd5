package sourcemap

import (
	"errors"
	"fmt"
)

// Base64 VLQ as used by source map revision 3: each character encodes five
// value bits plus a continuation bit; the decoded value carries its sign in
// the least significant bit.

const (
	vlqBaseShift     = 5
	vlqBase          = 1 << vlqBaseShift
	vlqBaseMask      = vlqBase - 1
	vlqContinuation  = vlqBase
	base64Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	maxVLQCharacters = 7 // enough for 32-bit values; longer runs are rejected
)

var errTruncatedVLQ = errors.New("truncated VLQ segment")

var base64Decode = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		table[base64Alphabet[i]] = int8(i)
	}
	return table
}()

// decodeVLQ decodes one VLQ value from s starting at pos. It returns the
// value and the position of the next undecoded character.
func decodeVLQ(s string, pos int) (value, next int, err error) {
	result := 0
	shift := 0
	chars := 0

	for {
		if pos >= len(s) {
			return 0, 0, errTruncatedVLQ
		}
		c := s[pos]
		digit := base64Decode[c]
		if digit < 0 {
			return 0, 0, fmt.Errorf("invalid VLQ character %q", c)
		}
		pos++
		chars++
		if chars > maxVLQCharacters {
			return 0, 0, errors.New("VLQ value out of range")
		}

		result |= int(digit&vlqBaseMask) << shift
		if digit&vlqContinuation == 0 {
			break
		}
		shift += vlqBaseShift
	}

	negative := result&1 != 0
	result >>= 1
	if negative {
		result = -result
	}
	return result, pos, nil
}
