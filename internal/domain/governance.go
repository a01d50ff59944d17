package domain

import "time"

// Outcome is the resolver's decision for an expense request.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeApproved
	OutcomeRejected
)

// String implements fmt.Stringer for log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// ResolveOutcome decides an expense request from its tally, the eligible
// voter population (the project's unique donor count) and the clock. It is
// a pure function: same inputs, same answer.
//
// Before the deadline the only exit from voting is a mathematical
// majority: the "for" count already exceeds the against votes plus every
// voter who has not turned up yet, so no remaining ballot can overturn
// it. At or after the deadline a simple majority decides,
// and ties go to the proposer. That tie rule is a deliberate policy: once
// voting closes without a clear rejection, the expense proceeds.
//
// With zero eligible voters the remaining pool is zero, so any "for" vote
// approves instantly, and a request with no votes at all approves at the
// deadline through the tie rule (0 >= 0).
func ResolveOutcome(t Tally, eligible int, now, deadline time.Time) Outcome {
	remaining := eligible - t.Total()
	if remaining < 0 {
		remaining = 0
	}
	if t.For > t.Against+remaining {
		return OutcomeApproved
	}
	if !now.Before(deadline) {
		if t.For >= t.Against {
			return OutcomeApproved
		}
		return OutcomeRejected
	}
	return OutcomePending
}
