package base

// Comparator is the host-supplied total order on keys. It must return a
// negative number if a < b, zero if a == b, and a positive number if a > b,
// matching the contract of bytes.Compare.
type Comparator func(a, b []byte) int

// EqualFunc is the host-supplied value equality predicate, required by
// Delete to confirm the value being removed matches what is stored.
type EqualFunc func(a, b any) bool
