// Package traverse implements the delta-chain traversal state machine:
// given the physical head of a virtual node, walk down to (and possibly
// past, for merge deltas) the terminal base node, resolving one of a point
// lookup, an inner navigation decision, or a full consolidation.
//
// The walk itself is a single small match statement (Walk, below) rather
// than a visitor interface with one handler method per record kind. Each
// traverser in this package supplies a closure that type-switches on the
// concrete record and threads whatever state it needs — the "handler" the
// design calls for is that state, not an object satisfying a wide
// interface.
package traverse

import "bwtree/internal/base"

// Outcome directs the walk loop after a Step inspects one record.
type Outcome int

const (
	// Continue follows the record's Next() link (deltas only; a base node
	// ends the walk regardless of the outcome returned).
	Continue Outcome = iota
	// Stop ends the walk immediately.
	Stop
	// FollowMerge continues the walk from the head returned alongside this
	// outcome instead of from Next() — used to descend into a merge
	// delta's captured sibling.
	FollowMerge
)

// Step is invoked once per record from head down to its terminal base node.
type Step func(rec base.Head) (Outcome, base.Head)

// Walk drives one delta-chain traversal, invoking step per record.
func Walk(head base.Head, step Step) {
	cur := head
	for cur != nil {
		outcome, next := step(cur)
		switch outcome {
		case Stop:
			return
		case FollowMerge:
			cur = next
		default:
			if _, isBase := cur.(*base.BaseNode); isBase {
				return
			}
			d, ok := cur.(base.Delta)
			if !ok {
				return
			}
			cur = d.Next()
		}
	}
}
