package rank

// Rebalancing thresholds.
const (
	// MinGap is the smallest numeric gap between two neighbours, at their common padded
	// width, that still admits a midpoint without precision extension.
	MinGap = 2

	// MaxLength is the longest rank the store column is expected to hold.
	MaxLength = 50
)

// NeedsRebalancing reports whether two neighbouring ranks are too close for comfortable
// future inserts: their decoded gap at the common padded width is below MinGap, or either
// rank has grown past MaxLength. Order of the arguments does not matter. Malformed ranks
// report false; Between reports those.
func NeedsRebalancing(a, b string) bool {
	if Validate(a) != nil || Validate(b) != nil {
		return false
	}
	if len(a) > MaxLength || len(b) > MaxLength {
		return true
	}

	width := max(len(a), len(b))
	x, _ := decode(padRight(a, width))
	y, _ := decode(padRight(b, width))
	if x.cmp(y) > 0 {
		x, y = y, x
	}
	return sub(y, x).lessThan(MinGap)
}

// Rebalance returns count evenly spaced ranks in ascending order, for re-keying a whole
// list. The range from all-Min up to Max followed by Min symbols is split into count+1
// equal steps and the count interior points are returned, so the first and last ranks keep
// headroom on both sides and After still works on the last one. The width grows until
// every step is at least MinGap.
func Rebalance(count int) []string {
	switch {
	case count <= 0:
		return []string{}
	case count == 1:
		return []string{Initial()}
	}

	for width := 1; ; width++ {
		top := make(digits, width)
		top[0] = uint8(Base - 1)

		step := divSmall(top, count+1)
		if step.lessThan(MinGap) {
			continue
		}

		ranks := make([]string, count)
		pos := make(digits, width)
		for i := range ranks {
			pos = add(pos, step)
			ranks[i] = pos.String()
		}
		return ranks
	}
}
