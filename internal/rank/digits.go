package rank

import (
	"fmt"
	"strings"
)

// digits is a most-significant-first vector of base-36 digit values.
type digits []uint8

// symbolValue returns the digit value of c, or -1 if c is outside the alphabet.
func symbolValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	default:
		return -1
	}
}

// decode converts a rank string into its digit vector.
func decode(s string) (digits, error) {
	d := make(digits, len(s))
	for i := range len(s) {
		v := symbolValue(s[i])
		if v < 0 {
			return nil, fmt.Errorf("%w: %q has invalid symbol %q at offset %d", ErrMalformedRank, s, s[i], i)
		}
		d[i] = uint8(v)
	}
	return d, nil
}

// String encodes the digit vector at its full width. Leading and trailing
// zero digits are kept: they are significant at this precision.
func (d digits) String() string {
	var sb strings.Builder
	sb.Grow(len(d))
	for _, v := range d {
		sb.WriteByte(Alphabet[v])
	}
	return sb.String()
}

// padRight appends Min symbols to s until it is n bytes long.
func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(string(Min), n-len(s))
}

// cmp compares two vectors of equal width.
func (d digits) cmp(o digits) int {
	for i := range d {
		switch {
		case d[i] < o[i]:
			return -1
		case d[i] > o[i]:
			return 1
		}
	}
	return 0
}

// midpoint returns floor((a+b)/2) for two vectors of equal width.
// The sum needs one extra digit; the halved result always fits back into the
// original width because both inputs do.
func midpoint(a, b digits) digits {
	n := len(a)
	sum := make([]int, n+1)
	carry := 0
	for i := n - 1; i >= 0; i-- {
		v := int(a[i]) + int(b[i]) + carry
		sum[i+1] = v % Base
		carry = v / Base
	}
	sum[0] = carry

	out := make(digits, n)
	rem := 0
	for i, v := range sum {
		cur := rem*Base + v
		if i > 0 {
			out[i-1] = uint8(cur / 2)
		}
		rem = cur % 2
	}
	return out
}

// add returns a+b for two vectors of equal width. Overflow beyond the width is dropped;
// callers only add values whose sum is known to fit.
func add(a, b digits) digits {
	out := make(digits, len(a))
	carry := 0
	for i := len(a) - 1; i >= 0; i-- {
		v := int(a[i]) + int(b[i]) + carry
		out[i] = uint8(v % Base)
		carry = v / Base
	}
	return out
}

// sub returns a-b for two vectors of equal width with a >= b.
func sub(a, b digits) digits {
	out := make(digits, len(a))
	borrow := 0
	for i := len(a) - 1; i >= 0; i-- {
		v := int(a[i]) - int(b[i]) - borrow
		borrow = 0
		if v < 0 {
			v += Base
			borrow = 1
		}
		out[i] = uint8(v)
	}
	return out
}

// divSmall returns floor(d/k) at the same width. k must be positive.
func divSmall(d digits, k int) digits {
	out := make(digits, len(d))
	rem := 0
	for i, v := range d {
		cur := rem*Base + int(v)
		out[i] = uint8(cur / k)
		rem = cur % k
	}
	return out
}

// lessThan reports whether the value of d is below the small integer k.
func (d digits) lessThan(k int) bool {
	v := 0
	for _, x := range d {
		v = v*Base + int(x)
		if v >= k {
			return false
		}
	}
	return true
}
