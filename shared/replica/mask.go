package replica

import (
	"math/bits"
	"strings"
)

// Mask records which fields of a sparse update are present. Bit i stands for
// schema position i; on the wire field 0 goes first.
type Mask uint64

// FullMask has the first n fields present.
func FullMask(n int) Mask {
	if n >= 64 {
		return ^Mask(0)
	}
	return Mask(1)<<n - 1
}

func (m Mask) Has(i int) bool {
	return m&(1<<i) != 0
}

func (m Mask) With(i int) Mask {
	return m | 1<<i
}

// Count returns the number of present fields.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// Pattern renders the first n bits in wire order, e.g. "010".
func (m Mask) Pattern(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if m.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
