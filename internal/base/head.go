package base

// Head is the common contract every physical record reachable from a
// mapping table slot must satisfy: both a *BaseNode and every delta variant
// implement it. The low key, high key, height and size are cached on
// whichever record currently sits at the head of the chain so that readers
// never have to walk the chain just to answer "what range does this virtual
// node cover".
type Head interface {
	Kind() Kind
	Height() uint16
	Size() uint32
	LowKey() BoundKey
	HighKey() BoundKey
}

// header is embedded by every delta record and by BaseNode to satisfy Head
// with no per-type boilerplate beyond setting the fields at construction.
type header struct {
	kind   Kind
	height uint16
	size   uint32
	low    BoundKey
	high   BoundKey
}

func (h header) Kind() Kind         { return h.kind }
func (h header) Height() uint16     { return h.height }
func (h header) Size() uint32       { return h.size }
func (h header) LowKey() BoundKey   { return h.low }
func (h header) HighKey() BoundKey  { return h.high }

// KeyInNode reports whether key falls within [low, high) as cached on head.
func KeyInNode(cmp Comparator, h Head, key []byte) bool {
	return KeyInRange(cmp, h.LowKey(), h.HighKey(), key)
}
