package domain

import "time"

// ProjectStatus enumerates fundraising lifecycle states.
type ProjectStatus string

const (
	ProjectStatusRaising   ProjectStatus = "raising"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Project is a fundraising campaign owned by a single organization.
// CurrentAmount and UniqueDonorCount are mutated only through donation
// recording; status moves raising -> active when the target is reached or
// the end date passes.
type Project struct {
	ID               string
	OrgID            string
	Title            string
	TargetAmount     int64
	CurrentAmount    int64
	UniqueDonorCount int
	Status           ProjectStatus
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AcceptsDonations reports whether the project is still raising funds at now.
func (p Project) AcceptsDonations(now time.Time) bool {
	return p.Status == ProjectStatusRaising && !now.After(p.EndDate)
}

// FundingComplete reports whether the raised amount has reached the target.
func (p Project) FundingComplete() bool {
	return p.CurrentAmount >= p.TargetAmount
}
