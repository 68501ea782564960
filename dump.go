package bwtree

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"bwtree/internal/base"
	"bwtree/internal/traverse"
)

// Dump walks every virtual node reachable from the root and writes one line
// per node: id, kind, height, size, low, high, and a content fingerprint.
// The fingerprint is an xxhash over the node's consolidated (key, value)
// pairs, letting a reader tell whether two chains materialize the same
// content without a full deep-equal.
func (t *Tree) Dump(w io.Writer) error {
	visited := make(map[base.NodeID]bool)
	return t.dumpNode(w, base.NodeID(t.root.Load()), visited)
}

func (t *Tree) dumpNode(w io.Writer, id base.NodeID, visited map[base.NodeID]bool) error {
	if visited[id] {
		return nil
	}
	visited[id] = true

	head := t.table.Read(id)
	if head == nil {
		_, err := fmt.Fprintf(w, "%d\t<empty>\n", id)
		return err
	}

	flat := traverse.Consolidate(t.cmp, head)
	fp := fingerprint(flat)

	low := boundString(flat.Low)
	high := boundString(flat.High)
	_, err := fmt.Fprintf(w, "%d\t%s\theight=%d\tsize=%d\tlow=%s\thigh=%s\tremoved=%v\tfp=%016x\n",
		id, head.Kind(), head.Height(), head.Size(), low, high, flat.Removed, fp)
	if err != nil {
		return err
	}

	if flat.Removed || flat.Leaf {
		return nil
	}
	for _, child := range flat.Children {
		if err := t.dumpNode(w, child, visited); err != nil {
			return err
		}
	}
	return nil
}

func boundString(b base.BoundKey) string {
	if b.IsInf() {
		return "inf"
	}
	return fmt.Sprintf("%q", b.Key)
}

// fingerprint hashes a consolidated node's entries in order, so two chains
// that flatten to the same content produce the same value regardless of
// how many deltas separate them from their respective base nodes.
func fingerprint(flat traverse.ConsolidateResult) uint64 {
	d := xxhash.New()
	for i, k := range flat.Keys {
		_, _ = d.Write(k)
		if flat.Leaf {
			_, _ = fmt.Fprintf(d, "=%v;", flat.Values[i])
		} else {
			_, _ = fmt.Fprintf(d, "->%d;", flat.Children[i])
		}
	}
	return d.Sum64()
}
