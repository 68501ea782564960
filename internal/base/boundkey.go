package base

// sign distinguishes which infinity an infinite BoundKey denotes. A finite
// bound's sign is always zero and carries no meaning.
type sign int8

const (
	finite sign = 0
	negInf sign = -1
	posInf sign = 1
)

// BoundKey represents a low or high bound on a virtual node's range. It can
// hold a concrete key or one of the two infinities, tagged by sign rather
// than a single Inf flag so a direct bound-vs-bound comparison (e.g. two
// BoundKeys compared without going through a key at all) can still tell
// -infinity from +infinity apart. Comparisons against a concrete key are
// only legal when sign is finite; callers branch on IsInf before touching
// Key.
type BoundKey struct {
	Key  []byte
	Sign sign
}

// NegInf constructs the -infinity low-key sentinel.
func NegInf() BoundKey { return BoundKey{Sign: negInf} }

// PosInf constructs the +infinity high-key sentinel.
func PosInf() BoundKey { return BoundKey{Sign: posInf} }

// Finite constructs a concrete bound around key.
func Finite(key []byte) BoundKey { return BoundKey{Key: key} }

// IsInf reports whether this bound is one of the infinities.
func (b BoundKey) IsInf() bool { return b.Sign != finite }

// LessEqualKey reports whether b, used as a low bound, is <= key: true when
// b is -infinity, otherwise a comparator-driven check.
func (b BoundKey) LessEqualKey(cmp Comparator, key []byte) bool {
	switch b.Sign {
	case negInf:
		return true
	case posInf:
		return false
	default:
		return cmp(b.Key, key) <= 0
	}
}

// GreaterThanKey reports whether b, used as a high bound, is > key: true
// when b is +infinity, otherwise a comparator-driven check.
func (b BoundKey) GreaterThanKey(cmp Comparator, key []byte) bool {
	switch b.Sign {
	case posInf:
		return true
	case negInf:
		return false
	default:
		return cmp(b.Key, key) > 0
	}
}

// KeyInRange reports whether key falls in the half-open range [low, high).
func KeyInRange(cmp Comparator, low, high BoundKey, key []byte) bool {
	return low.LessEqualKey(cmp, key) && high.GreaterThanKey(cmp, key)
}
