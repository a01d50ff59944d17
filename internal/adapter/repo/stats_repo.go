package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// StatsRepositoryPG implements domain.StatsRepository using PostgreSQL.
type StatsRepositoryPG struct {
	sql *infra.SQLRunner
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(sql *infra.SQLRunner) *StatsRepositoryPG {
	return &StatsRepositoryPG{sql: sql}
}

// IncrementCounters upserts counters for the provided day.
func (r *StatsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QIncrementDailyStats,
		day,
		counters[domain.StatDonations],
		counters[domain.StatDonatedAmount],
		counters[domain.StatRequestsCreated],
		counters[domain.StatRequestsApproved],
		counters[domain.StatRequestsRejected],
		counters[domain.StatRequestsExecuted],
	)
	return err
}

// Summary returns counters aggregated over all recorded days.
func (r *StatsRepositoryPG) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QStatsSummary)
	var s domain.StatsSummary
	if err := row.Scan(&s.Donations, &s.DonatedAmount, &s.RequestsCreated,
		&s.RequestsApproved, &s.RequestsRejected, &s.RequestsExecuted, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ domain.StatsRepository = (*StatsRepositoryPG)(nil)
