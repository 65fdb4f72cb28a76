package domain

import "time"

// ProposalStatus tracks what happened to an exchange proposal sent to the
// participants of a cycle.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusDeclined ProposalStatus = "declined"
	ProposalStatusExpired  ProposalStatus = "expired"
)

// Proposal references a persisted cycle that was offered to its
// participants. A cycle with a pending proposal must never be purged or
// archived out from under it.
type Proposal struct {
	ID        int64          `json:"id" db:"id"`
	CycleID   int64          `json:"cycle_id" db:"cycle_id"`
	Status    ProposalStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

func (p *Proposal) Pending() bool {
	return p.Status == ProposalStatusPending
}
