package rank

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet constants. Alphabet order matches byte order, so ranks compare with
// plain string comparison.
const (
	Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	Base     = len(Alphabet)

	// Min is the smallest symbol. Ranks are right-padded with it before arithmetic.
	Min = '0'

	// Max is the exclusive upper end used by After.
	Max = "z"

	// MinBound is the exclusive lower end used by Before.
	MinBound = "0"

	// initialRank is the first rank handed out for an empty list.
	initialRank = "n"
)

// Common rank errors.
var (
	// ErrInvalidOrder reports bounds that are not strictly increasing, or a pair with
	// no string between them. It is a caller bug and must not be retried.
	ErrInvalidOrder = errors.New("invalid rank order")

	// ErrMalformedRank reports an empty rank or one with symbols outside the alphabet.
	ErrMalformedRank = errors.New("malformed rank")
)

// Initial returns the rank of the first item of an empty list.
func Initial() string {
	return initialRank
}

// Before returns a rank strictly less than existing. An empty existing rank means the
// list is empty and yields Initial.
func Before(existing string) (string, error) {
	if existing == "" {
		return Initial(), nil
	}
	return Between(MinBound, existing)
}

// After returns a rank strictly greater than existing. An empty existing rank means the
// list is empty and yields Initial.
func After(existing string) (string, error) {
	if existing == "" {
		return Initial(), nil
	}
	return Between(existing, Max)
}

// Between returns a rank that sorts strictly between lower and upper.
// An empty bound is an open end of the list; both empty yields Initial.
//
// Both bounds are right-padded with Min to a common width and averaged as base-36
// integers. When the average collapses onto the lower bound the two are adjacent at
// that width, so the lower bound gains a Min digit, the upper bound a Max digit, and the
// average is retried one digit longer. The result keeps its full working width.
func Between(lower, upper string) (string, error) {
	switch {
	case lower == "" && upper == "":
		return Initial(), nil
	case lower == "":
		return Before(upper)
	case upper == "":
		return After(lower)
	}

	if err := Validate(lower); err != nil {
		return "", err
	}
	if err := Validate(upper); err != nil {
		return "", err
	}
	if lower >= upper {
		return "", fmt.Errorf("%w: lower %q must sort before upper %q", ErrInvalidOrder, lower, upper)
	}

	width := max(len(lower), len(upper))
	lo, _ := decode(padRight(lower, width))
	hi, _ := decode(padRight(upper, width))

	// upper is lower followed only by Min symbols: nothing sorts between them.
	if lo.cmp(hi) == 0 {
		return "", fmt.Errorf("%w: no rank exists between %q and %q", ErrInvalidOrder, lower, upper)
	}

	for {
		mid := midpoint(lo, hi)
		if mid.cmp(lo) != 0 {
			return mid.String(), nil
		}
		lo = append(lo, 0)
		hi = append(hi, uint8(Base-1))
	}
}

// Validate checks that r is a non-empty string over the alphabet.
func Validate(r string) error {
	if r == "" {
		return fmt.Errorf("%w: empty rank", ErrMalformedRank)
	}
	_, err := decode(r)
	return err
}

// Compare orders two ranks. It returns -1, 0 or +1.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Trim drops trailing Min symbols, keeping at least one symbol. Trimmed ranks keep their
// order relative to ranks that do not share their prefix; trimming is optional.
func Trim(r string) string {
	end := len(r)
	for end > 1 && r[end-1] == Min {
		end--
	}
	return r[:end]
}
