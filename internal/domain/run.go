package domain

import "time"

// RunMode distinguishes a rebuild-everything recompute from one scoped to
// the neighborhood of recently changed listings.
type RunMode string

const (
	RunModeFull        RunMode = "full"
	RunModeIncremental RunMode = "incremental"
)

// RunSummary is the result of one recompute invocation, returned to the
// caller and persisted for bookkeeping. LastFullRunAt change detection is
// driven by the stored summaries of previous full runs.
type RunSummary struct {
	RunID            string        `json:"run_id" db:"run_id"`
	Mode             RunMode       `json:"mode" db:"mode"`
	StartedAt        time.Time     `json:"started_at" db:"started_at"`
	Elapsed          time.Duration `json:"elapsed" db:"elapsed"`
	ListingsScanned  int           `json:"listings_scanned" db:"listings_scanned"`
	ModifiedListings int           `json:"modified_listings" db:"modified_listings"`
	UsersTouched     int           `json:"users_touched" db:"users_touched"`
	CyclesFound      int           `json:"cycles_found" db:"cycles_found"`
	Created          int           `json:"created" db:"created"`
	Updated          int           `json:"updated" db:"updated"`
	MarkedStale      int           `json:"marked_stale" db:"marked_stale"`
	Purged           int           `json:"purged" db:"purged"`
	Truncated        bool          `json:"truncated" db:"truncated"`
}
