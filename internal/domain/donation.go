package domain

import "time"

// Donation is an immutable ledger entry for a single contribution.
// TxHash is the external settlement proof and is unique across all
// donations; DonorCountry is a best-effort audit annotation.
type Donation struct {
	ID           string
	ProjectID    string
	DonorID      string
	Amount       int64
	TxHash       string
	DonorCountry string
	CreatedAt    time.Time
}
