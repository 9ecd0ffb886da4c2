package services

import "errors"

// Consistency errors abort the whole composite operation; nothing from the
// enclosing transaction is persisted when one of these is returned.
var (
	ErrOrderingConflict     = errors.New("step order is no longer dense")
	ErrVersionNotFound      = errors.New("version snapshot does not belong to this parent")
	ErrEmptyHistorySnapshot = errors.New("version snapshot has no step snapshots")
	ErrFixtureProject       = errors.New("delegated fixture belongs to a different project")
	ErrCopyNameExhausted    = errors.New("could not find a free copy name")
	ErrNotFound             = errors.New("not found")
	ErrNameTaken            = errors.New("name is already in use in this project")
)
