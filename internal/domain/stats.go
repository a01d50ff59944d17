package domain

import "time"

// StatsSummary aggregates platform counters across all recorded days.
type StatsSummary struct {
	Donations        int64
	DonatedAmount    int64
	RequestsCreated  int64
	RequestsApproved int64
	RequestsRejected int64
	RequestsExecuted int64
	UpdatedAt        time.Time
}

// Counter keys accepted by StatsRepository.IncrementCounters.
const (
	StatDonations        = "donations"
	StatDonatedAmount    = "donated_amount"
	StatRequestsCreated  = "requests_created"
	StatRequestsApproved = "requests_approved"
	StatRequestsRejected = "requests_rejected"
	StatRequestsExecuted = "requests_executed"
)
