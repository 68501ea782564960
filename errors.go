package bwtree

import "errors"

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrKeyExists             = errors.New("bwtree: key already exists")
	ErrKeyNotFound           = errors.New("bwtree: key not found")
	ErrValueMismatch         = errors.New("bwtree: value does not match existing entry")
	ErrMappingTableExhausted = errors.New("bwtree: mapping table exhausted")
	ErrUnknownDeltaKind      = errors.New("bwtree: unknown delta kind encountered during traversal")
)

// ContractViolation is panicked when the tree observes a state its own CAS
// discipline is supposed to make impossible: a node ID on the descent path
// whose mapping table slot has no head (a dangling child ID), a root virtual
// node observed removed, or a mapping table with no room for the initial
// root. These are implementation bugs, not caller error, and are never
// meant to be recovered from.
type ContractViolation struct {
	Op  string
	Msg string
}

func (e *ContractViolation) Error() string {
	return "bwtree: contract violation in " + e.Op + ": " + e.Msg
}
