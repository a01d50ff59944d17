package domain

import "time"

// ExpenseStatus enumerates the lifecycle of a spending request.
type ExpenseStatus string

const (
	ExpenseStatusVoting   ExpenseStatus = "voting"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// VoteChoice is a donor's position on an expense request.
type VoteChoice string

const (
	VoteFor     VoteChoice = "for"
	VoteAgainst VoteChoice = "against"
)

// Tally is the running vote count of an expense request.
type Tally struct {
	For     int
	Against int
}

// Total returns the number of votes cast.
func (t Tally) Total() int { return t.For + t.Against }

// Vote is a single donor's ballot on an expense request. Each voter may
// appear at most once per request.
type Vote struct {
	ID         string
	RequestID  string
	VoterID    string
	Choice     VoteChoice
	Motivation string
	TxHash     string
	CreatedAt  time.Time
}

// ExpenseRequest is a proposed expenditure from a project's raised funds.
// Status moves one way out of voting; Executed can only flip to true on an
// approved request, and only once.
type ExpenseRequest struct {
	ID              string
	ProjectID       string
	Amount          int64
	Status          ExpenseStatus
	Executed        bool
	CreationTxHash  string
	ExecutionTxHash string
	DocumentRef     string
	Tally           Tally
	CreatedAt       time.Time
	VotingDeadline  time.Time
	ResolvedAt      *time.Time
	ExecutedAt      *time.Time
}

// Open reports whether the request still blocks new requests on its
// project: either voting is in progress or an approval awaits its
// completion proof.
func (e ExpenseRequest) Open() bool {
	return e.Status == ExpenseStatusVoting ||
		(e.Status == ExpenseStatusApproved && !e.Executed)
}
