package ranking

import "errors"

var (
	ErrNotOwner      = errors.New("caller is not the ledger owner")
	ErrEmptyPool     = errors.New("reward pool is empty")
	ErrNoEntries     = errors.New("ledger has no entries")
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	ErrInvalidScore  = errors.New("score must not be negative")
	ErrPoolOverflow  = errors.New("reward pool would overflow")
)
