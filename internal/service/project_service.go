package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ProjectService manages fundraising campaigns.
type ProjectService struct {
	projects  domain.ProjectRepository
	donations domain.DonationRepository
	logger    zerolog.Logger
	now       clock
}

// NewProjectService constructs the service.
func NewProjectService(projects domain.ProjectRepository, donations domain.DonationRepository, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		projects:  projects,
		donations: donations,
		logger:    logger,
		now:       systemClock,
	}
}

// CreateProjectInput carries the fields for a new campaign.
type CreateProjectInput struct {
	Caller       Identity
	Title        string
	TargetAmount int64
	EndDate      string // RFC 3339
}

// Create registers a new raising project for a verified organization.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*domain.Project, error) {
	if in.Caller.Role != RoleOrganization {
		return nil, domain.ErrNotOrganization
	}
	if !domain.ValidID(in.Caller.ID) {
		return nil, domain.ErrInvalidID
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}
	if in.TargetAmount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	endDate, err := parseRFC3339(in.EndDate)
	if err != nil || !endDate.After(s.now()) {
		return nil, domain.ErrInvalidEndDate
	}

	p := &domain.Project{
		ID:           uuid.NewString(),
		OrgID:        in.Caller.ID,
		Title:        strings.TrimSpace(in.Title),
		TargetAmount: in.TargetAmount,
		Status:       domain.ProjectStatusRaising,
		EndDate:      endDate,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("project_id", p.ID).Str("org_id", p.OrgID).
		Int64("target_amount", p.TargetAmount).Msg("project created")
	return p, nil
}

// Get returns the funding snapshot for a project.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	return s.projects.GetByID(ctx, id)
}

// Cancel withdraws a raising project before any donation arrives.
func (s *ProjectService) Cancel(ctx context.Context, id string, caller Identity) (*domain.Project, error) {
	if !domain.ValidID(id) || !domain.ValidID(caller.ID) {
		return nil, domain.ErrInvalidID
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OrgID != caller.ID {
		return nil, domain.ErrNotOwner
	}
	if err := s.projects.Cancel(ctx, id); err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatusCancelled
	s.logger.Info().Str("project_id", id).Msg("project cancelled")
	return p, nil
}

// Donations lists recent donations to a project. Donor identities are
// redacted at the transport layer for non-owners.
func (s *ProjectService) Donations(ctx context.Context, projectID string, limit int) ([]domain.Donation, error) {
	if !domain.ValidID(projectID) {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.donations.ListByProject(ctx, projectID, limit)
}
