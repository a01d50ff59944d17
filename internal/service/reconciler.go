package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Reconciler is the periodic sweep that converges persisted state with the
// funding and governance rules: raising projects past their end date flip
// to active, and voting requests whose outcome is decided get resolved.
// Every step is an idempotent conditional write, so overlapping or repeated
// sweeps are harmless.
type Reconciler struct {
	projects domain.ProjectRepository
	expenses domain.ExpenseRepository
	stats    domain.StatsRepository
	logger   zerolog.Logger
	now      clock
}

// NewReconciler constructs the sweep. stats may be nil.
func NewReconciler(projects domain.ProjectRepository, expenses domain.ExpenseRepository, stats domain.StatsRepository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		projects: projects,
		expenses: expenses,
		stats:    stats,
		logger:   logger,
		now:      systemClock,
	}
}

// RunOnce performs a single sweep. Per-item failures are logged and
// skipped; the next run retries them.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	now := r.now()
	start := time.Now()

	flipped, err := r.projects.ActivateExpired(ctx, now)
	if err != nil {
		r.logger.Error().Err(err).Msg("activate expired projects failed")
	} else if flipped > 0 {
		r.logger.Info().Int64("count", flipped).Msg("projects activated on end date")
	}

	resolved, err := r.resolveDue(ctx, now)
	if err != nil {
		return err
	}

	r.logger.Info().
		Int("resolved", resolved).
		Dur("elapsed", time.Since(start)).
		Msg("reconcile sweep done")
	return nil
}

// resolveDue walks every request still in voting and applies the outcome
// rule against the electorate as it stands now. Donor counts are re-read
// each sweep, so a donation that arrived after a request opened moves its
// majority threshold.
func (r *Reconciler) resolveDue(ctx context.Context, now time.Time) (int, error) {
	due, err := r.expenses.ListVoting(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range due {
		req := &due[i]
		p, err := r.projects.GetByID(ctx, req.ProjectID)
		if err != nil {
			r.logger.Error().Err(err).Str("request_id", req.ID).Msg("reconcile: project read failed")
			continue
		}

		outcome := domain.ResolveOutcome(req.Tally, p.UniqueDonorCount, now, req.VotingDeadline)
		if outcome == domain.OutcomePending {
			continue
		}

		to := domain.ExpenseStatusApproved
		key := domain.StatRequestsApproved
		if outcome == domain.OutcomeRejected {
			to = domain.ExpenseStatusRejected
			key = domain.StatRequestsRejected
		}
		won, err := r.expenses.Resolve(ctx, req.ID, to, now)
		if err != nil {
			r.logger.Error().Err(err).Str("request_id", req.ID).Msg("reconcile: resolve failed")
			continue
		}
		if !won {
			continue
		}
		resolved++
		r.bumpStats(ctx, now, key)
		r.logger.Info().
			Str("request_id", req.ID).
			Str("project_id", req.ProjectID).
			Str("outcome", string(to)).
			Int("for", req.Tally.For).
			Int("against", req.Tally.Against).
			Int("eligible", p.UniqueDonorCount).
			Msg("expense request resolved")
	}
	return resolved, nil
}

func (r *Reconciler) bumpStats(ctx context.Context, now time.Time, key string) {
	if r.stats == nil {
		return
	}
	if err := r.stats.IncrementCounters(ctx, now.Format(statsDay), map[string]int{key: 1}); err != nil {
		r.logger.Warn().Err(err).Msg("stats increment failed")
	}
}
