package domain

import (
	"context"
	"time"
)

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	// Cancel moves a raising project with no recorded donations to
	// cancelled. ErrHasDonations when funds were already raised.
	Cancel(ctx context.Context, id string) error
	// ActivateExpired flips every raising project whose end date has
	// passed to active. Idempotent; returns the number of flips applied.
	ActivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// DonationRepository defines persistence for the donation ledger.
type DonationRepository interface {
	// Record atomically inserts the donation, re-validates the funding
	// target against the post-increment amount, bumps the unique donor
	// count for first-time donors, and flips the project to active when
	// funding completes or the window has passed. Returns the updated
	// project. ErrDuplicateProof, ErrTargetExceeded, ErrFundingClosed.
	Record(ctx context.Context, d *Donation, now time.Time) (*Project, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]Donation, error)
	// DonorExists reports whether the donor has at least one donation to
	// the project.
	DonorExists(ctx context.Context, projectID, donorID string) (bool, error)
}

// ExpenseRepository defines persistence for expense requests and votes.
type ExpenseRepository interface {
	// Create inserts the request guarded by the one-open-request rule and
	// the approved-spending budget, both evaluated atomically with the
	// insert. ErrRequestInFlight, ErrBudgetExceeded, ErrProjectNotActive,
	// ErrDuplicateProof.
	Create(ctx context.Context, e *ExpenseRequest) error
	GetByID(ctx context.Context, id string) (*ExpenseRequest, error)
	// ListByProject filters by status when status is non-empty.
	ListByProject(ctx context.Context, projectID string, status ExpenseStatus) ([]ExpenseRequest, error)
	ListVoting(ctx context.Context) ([]ExpenseRequest, error)
	// CastVote inserts the ballot if the voter has not voted yet and bumps
	// the tally in the same atomic step, guarded by the request still
	// being in its voting window at now. ErrDuplicateVote, ErrVotingClosed.
	CastVote(ctx context.Context, v *Vote, now time.Time) (Tally, error)
	// VoteOf returns the voter's own ballot, or ErrNotFound.
	VoteOf(ctx context.Context, requestID, voterID string) (*Vote, error)
	// Resolve transitions a request out of voting. Write-once: reports
	// false without error when the request already left voting.
	Resolve(ctx context.Context, id string, to ExpenseStatus, now time.Time) (bool, error)
	// MarkExecuted stamps an approved, unexecuted request with its
	// completion proof. ErrNotApproved, ErrAlreadyExecuted.
	MarkExecuted(ctx context.Context, id, txHash string, now time.Time) error
}

// StatsRepository updates and reads the daily platform counters.
type StatsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	Summary(ctx context.Context) (*StatsSummary, error)
}
