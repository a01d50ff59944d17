// Package service implements the fund-accounting and expense-governance
// core: donation recording, expense request lifecycle, vote casting, the
// execution gate and the periodic reconciliation sweep. All exclusivity
// (unique donors, one vote per voter, one open request per project) is
// enforced by the repositories through atomic conditional writes; the
// services order the precondition checks and name the failures.
package service

import "time"

// Caller roles forwarded by the session layer. The organization check is
// consumed here, not implemented: the wallet-signature gateway verifies
// organizations before minting their session token.
const (
	RoleDonor        = "donor"
	RoleOrganization = "organization"
)

// Identity is the authenticated caller of a service operation.
type Identity struct {
	ID   string
	Role string
}

// clock returns the current time; services take it as a field so tests can
// pin the voting window.
type clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

const statsDay = "2006-01-02"
