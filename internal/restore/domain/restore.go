package domain

import "context"

type Result string

const (
	ResultRestored Result = "restored"
	ResultFailed   Result = "failed"
)

const (
	ReasonRestoreFailed    = "Restore Failed"
	ReasonNothingToRestore = "Nothing to Restore"
	ReasonRestored         = "Restore is successful"
)

// Outcome is the terminal result of one restore-all attempt.
type Outcome struct {
	Result Result `json:"result"`
	Reason string `json:"reason"`
}

func (o Outcome) Succeeded() bool {
	return o.Result == ResultRestored
}

// Service drives a restore-all-purchases attempt to its outcome.
type Service interface {
	Restore(ctx context.Context) (Outcome, error)
}
