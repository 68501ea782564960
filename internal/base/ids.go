package base

// NodeID is the stable, opaque identifier a mapping table slot is keyed by.
// It never changes for the lifetime of a virtual node, even though the
// virtual node's physical head (delta chain or base node) is replaced on
// every mutation.
type NodeID uint64

// InvalidNodeID is the reserved sentinel meaning "no node", mirroring the
// original source's static_cast<NodeIDType>(-1).
const InvalidNodeID NodeID = ^NodeID(0)

// Valid reports whether id refers to a real mapping table slot.
func (id NodeID) Valid() bool {
	return id != InvalidNodeID
}
