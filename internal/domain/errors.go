package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidID          = errors.New("invalid identifier")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidTitle       = errors.New("title is required")
	ErrInvalidEndDate     = errors.New("end date must be in the future")
	ErrInvalidProofHash   = errors.New("malformed transaction hash")
	ErrInvalidDocumentRef = errors.New("unsupported document reference")
	ErrInvalidChoice      = errors.New("invalid vote choice")

	ErrNotOrganization    = errors.New("caller is not a verified organization")
	ErrNotOwner           = errors.New("caller does not own the project")
	ErrOwnProjectDonation = errors.New("organizations cannot fund their own project")
	ErrNotDonor           = errors.New("voter has not donated to the project")

	ErrFundingClosed    = errors.New("project is not accepting donations")
	ErrTargetExceeded   = errors.New("donation would exceed the funding target")
	ErrDuplicateProof   = errors.New("transaction hash already recorded")
	ErrProjectNotActive = errors.New("project is not active")
	ErrRequestInFlight  = errors.New("another expense request is still open")
	ErrBudgetExceeded   = errors.New("approved spending would exceed raised funds")
	ErrVotingClosed     = errors.New("voting window is closed")
	ErrDuplicateVote    = errors.New("voter has already voted")
	ErrNotApproved      = errors.New("request is not approved")
	ErrAlreadyExecuted  = errors.New("request already executed")
	ErrHasDonations     = errors.New("project already has donations")
)
