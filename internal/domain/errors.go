package domain

import "errors"

var (
	ErrListingNotFound       = errors.New("listing not found")
	ErrCycleNotFound         = errors.New("cycle not found")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrRecomputeInProgress   = errors.New("a recompute is already in progress")
	ErrCyclePinnedByProposal = errors.New("cycle has a pending proposal")
	ErrInvalidDirection      = errors.New("invalid listing direction")
	ErrInvalidExchangeMethod = errors.New("invalid exchange method")
)
