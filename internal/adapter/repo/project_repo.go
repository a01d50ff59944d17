package repo

import (
	"context"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ProjectRepositoryPG implements domain.ProjectRepository backed by PostgreSQL.
type ProjectRepositoryPG struct {
	sql *infra.SQLRunner
}

// NewProjectRepository creates a new ProjectRepositoryPG.
func NewProjectRepository(sql *infra.SQLRunner) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{sql: sql}
}

// Create inserts a new raising project.
func (r *ProjectRepositoryPG) Create(ctx context.Context, p *domain.Project) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertProject,
		p.ID, p.OrgID, p.Title, p.TargetAmount, p.EndDate)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.Status = domain.ProjectStatusRaising
	return nil
}

// GetByID fetches a project by id.
func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProjectByID, id)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.OrgID, &p.Title, &p.TargetAmount, &p.CurrentAmount,
		&p.UniqueDonorCount, &p.Status, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Cancel moves a raising, unfunded project to cancelled. The conditional
// update carries the business rule; zero rows affected means funds were
// already raised or the project left raising concurrently.
func (r *ProjectRepositoryPG) Cancel(ctx context.Context, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QCancelProject, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHasDonations
	}
	return nil
}

// ActivateExpired flips raising projects past their end date to active.
func (r *ProjectRepositoryPG) ActivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QActivateExpiredProjects, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)
