package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// DonationService records verified on-chain donations against projects.
type DonationService struct {
	projects  domain.ProjectRepository
	donations domain.DonationRepository
	stats     domain.StatsRepository
	logger    zerolog.Logger
	now       clock
}

// NewDonationService constructs the service. stats may be nil.
func NewDonationService(projects domain.ProjectRepository, donations domain.DonationRepository, stats domain.StatsRepository, logger zerolog.Logger) *DonationService {
	return &DonationService{
		projects:  projects,
		donations: donations,
		stats:     stats,
		logger:    logger,
		now:       systemClock,
	}
}

// RecordDonationInput carries a donation to be recorded.
type RecordDonationInput struct {
	Caller       Identity
	ProjectID    string
	Amount       int64
	TxHash       string
	DonorCountry string
}

// Record validates and applies a donation. The repository runs the target,
// duplicate-proof, ownership and funding-window checks under the project
// row lock, in that order, so two racing donations can never push
// current_amount past the target and a replayed proof is always named as
// such.
func (s *DonationService) Record(ctx context.Context, in RecordDonationInput) (*domain.Donation, *domain.Project, error) {
	if !domain.ValidID(in.Caller.ID) || !domain.ValidID(in.ProjectID) {
		return nil, nil, domain.ErrInvalidID
	}
	p, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if in.Amount <= 0 {
		return nil, nil, domain.ErrInvalidAmount
	}
	if p.CurrentAmount+in.Amount > p.TargetAmount {
		return nil, nil, domain.ErrTargetExceeded
	}
	if !domain.ValidTxHash(in.TxHash) {
		return nil, nil, domain.ErrInvalidProofHash
	}

	now := s.now()
	d := &domain.Donation{
		ID:           uuid.NewString(),
		ProjectID:    in.ProjectID,
		DonorID:      in.Caller.ID,
		Amount:       in.Amount,
		TxHash:       domain.NormalizeTxHash(in.TxHash),
		DonorCountry: in.DonorCountry,
	}
	updated, err := s.donations.Record(ctx, d, now)
	if err != nil {
		return nil, nil, err
	}

	s.bumpStats(ctx, now, in.Amount)
	s.logger.Info().
		Str("donation_id", d.ID).
		Str("project_id", d.ProjectID).
		Int64("amount", d.Amount).
		Str("project_status", string(updated.Status)).
		Msg("donation recorded")
	return d, updated, nil
}

// bumpStats is best effort; a counter miss never fails the donation.
func (s *DonationService) bumpStats(ctx context.Context, now time.Time, amount int64) {
	if s.stats == nil {
		return
	}
	err := s.stats.IncrementCounters(ctx, now.Format(statsDay), map[string]int{
		domain.StatDonations:     1,
		domain.StatDonatedAmount: int(amount),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats increment failed")
	}
}
