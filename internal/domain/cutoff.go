package domain

import "time"

// CutoffRecord is the observation point chosen for one customer.
// Only snapshots with WindowStart <= period end < Cutoff feed its features.
// WindowStart is always Cutoff minus the observation window in months.
type CutoffRecord struct {
	CustomerID  string
	Cutoff      time.Time
	WindowStart time.Time
	Attrited    bool
}

// ExclusionReason explains why a customer has no prepared row.
type ExclusionReason string

const (
	// ReasonNoHistoryBeforeCutoff: an attrited customer has no snapshot before its cutoff.
	ReasonNoHistoryBeforeCutoff ExclusionReason = "no_history_before_cutoff"
	// ReasonInsufficientHistory: the history span is shorter than the regime requires.
	ReasonInsufficientHistory ExclusionReason = "insufficient_history"
	// ReasonNoRowsInWindow: no snapshot falls inside the observation window.
	ReasonNoRowsInWindow ExclusionReason = "no_rows_in_window"
	// ReasonAlreadyAttrited: a scoring customer has already attrited.
	ReasonAlreadyAttrited ExclusionReason = "already_attrited"
)

// Exclusion records a customer dropped by cutoff sampling.
type Exclusion struct {
	CustomerID string
	Reason     ExclusionReason
}
