package wide

import (
	"fmt"
	"strconv"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

func hexDump(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out := make([]byte, 0, len(b)*3-1)
	for i, c := range b {
		if i > 0 {
			out = append(out, '-')
		}
		out = append(out, hexDigits[c>>4], hexDigits[c&0x0F])
	}
	return string(out)
}

// parseHexDump accepts "AA-BB-..." and, for convenience, the dash-free
// "AABB..." form. Exactly size bytes must be present.
func parseHexDump(s string, size int) ([]byte, error) {
	var pairs []string
	if strings.Contains(s, "-") {
		pairs = strings.Split(s, "-")
	} else {
		if len(s)%2 != 0 {
			return nil, fmt.Errorf("%w: odd length hex %q", ErrFormat, s)
		}
		for i := 0; i < len(s); i += 2 {
			pairs = append(pairs, s[i:i+2])
		}
	}
	if len(pairs) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d in %q", ErrFormat, size, len(pairs), s)
	}
	b := make([]byte, size)
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: bad hex byte %q", ErrFormat, p)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex byte %q", ErrFormat, p)
		}
		b[i] = byte(v)
	}
	return b, nil
}
