package repo

import (
	"context"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository backed by PostgreSQL.
type DonationRepositoryPG struct {
	sql *infra.SQLRunner
}

// NewDonationRepository creates a new DonationRepositoryPG.
func NewDonationRepository(sql *infra.SQLRunner) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Record applies a donation in a single transaction. The project row lock
// serializes concurrent donations to the same project, so the target
// re-check and the unique-donor increment act on a consistent snapshot and
// the raising->active flip is applied exactly once.
func (r *DonationRepositoryPG) Record(ctx context.Context, d *domain.Donation, now time.Time) (*domain.Project, error) {
	var updated *domain.Project

	err := r.sql.WithTx(ctx, func(tx infra.SQLExecutor) error {
		var p domain.Project
		p.ID = d.ProjectID
		row := tx.QueryRow(ctx, sqlinline.QLockProjectForDonation, d.ProjectID)
		if err := row.Scan(&p.OrgID, &p.TargetAmount, &p.CurrentAmount,
			&p.UniqueDonorCount, &p.Status, &p.EndDate); err != nil {
			if infra.IsNoRows(err) {
				return domain.ErrNotFound
			}
			return err
		}

		if p.CurrentAmount+d.Amount > p.TargetAmount {
			return domain.ErrTargetExceeded
		}

		// A replayed proof must be named as such even when the funding
		// window has since closed, so it is tested ahead of the window
		// guard. The unique index still backstops a racing insert.
		var proofUsed bool
		row = tx.QueryRow(ctx, sqlinline.QDonationProofUsed, d.TxHash)
		if err := row.Scan(&proofUsed); err != nil {
			return err
		}
		if proofUsed {
			return domain.ErrDuplicateProof
		}

		if p.OrgID == d.DonorID {
			return domain.ErrOwnProjectDonation
		}
		if !p.AcceptsDonations(now) {
			return domain.ErrFundingClosed
		}

		var alreadyDonor bool
		row = tx.QueryRow(ctx, sqlinline.QDonorExists, d.ProjectID, d.DonorID)
		if err := row.Scan(&alreadyDonor); err != nil {
			return err
		}

		row = tx.QueryRow(ctx, sqlinline.QInsertDonation,
			d.ID, d.ProjectID, d.DonorID, d.Amount, d.TxHash, d.DonorCountry)
		if err := row.Scan(&d.CreatedAt); err != nil {
			if infra.IsUniqueViolation(err, "donations_tx_hash_key") {
				return domain.ErrDuplicateProof
			}
			return err
		}

		row = tx.QueryRow(ctx, sqlinline.QApplyDonationToProject,
			d.ProjectID, d.Amount, !alreadyDonor)
		if err := row.Scan(&p.CurrentAmount, &p.UniqueDonorCount); err != nil {
			return err
		}

		if p.FundingComplete() || now.After(p.EndDate) {
			if _, err := tx.Exec(ctx, sqlinline.QFlipProjectActive, d.ProjectID); err != nil {
				return err
			}
			p.Status = domain.ProjectStatusActive
		}

		updated = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByProject returns recent donations for a project.
func (r *DonationRepositoryPG) ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByProject, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.DonorID, &d.Amount,
			&d.TxHash, &d.DonorCountry, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DonorExists reports whether the donor already contributed to the project.
func (r *DonationRepositoryPG) DonorExists(ctx context.Context, projectID, donorID string) (bool, error) {
	var exists bool
	row := r.sql.QueryRow(ctx, sqlinline.QDonorExists, projectID, donorID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
