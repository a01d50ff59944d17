package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ExpenseService manages expense requests: creation, voting, the tally
// read model and the execution gate.
type ExpenseService struct {
	projects     domain.ProjectRepository
	donations    domain.DonationRepository
	expenses     domain.ExpenseRepository
	stats        domain.StatsRepository
	votingWindow time.Duration
	logger       zerolog.Logger
	now          clock
}

// NewExpenseService constructs the service. stats may be nil.
func NewExpenseService(
	projects domain.ProjectRepository,
	donations domain.DonationRepository,
	expenses domain.ExpenseRepository,
	stats domain.StatsRepository,
	votingWindow time.Duration,
	logger zerolog.Logger,
) *ExpenseService {
	return &ExpenseService{
		projects:     projects,
		donations:    donations,
		expenses:     expenses,
		stats:        stats,
		votingWindow: votingWindow,
		logger:       logger,
		now:          systemClock,
	}
}

// CreateExpenseInput carries a new spending proposal.
type CreateExpenseInput struct {
	Caller      Identity
	ProjectID   string
	Amount      int64
	TxHash      string
	DocumentRef string
}

// Create opens a voting request against an active project. The
// one-open-request rule and the approved budget cap are evaluated by the
// repository atomically with the insert.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpenseInput) (*domain.ExpenseRequest, error) {
	if !domain.ValidID(in.Caller.ID) || !domain.ValidID(in.ProjectID) {
		return nil, domain.ErrInvalidID
	}
	p, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.OrgID != in.Caller.ID {
		return nil, domain.ErrNotOwner
	}
	if p.Status != domain.ProjectStatusActive {
		return nil, domain.ErrProjectNotActive
	}
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.Amount > p.CurrentAmount {
		return nil, domain.ErrBudgetExceeded
	}
	if !domain.ValidDocumentRef(in.DocumentRef) {
		return nil, domain.ErrInvalidDocumentRef
	}
	if !domain.ValidTxHash(in.TxHash) {
		return nil, domain.ErrInvalidProofHash
	}

	now := s.now()
	e := &domain.ExpenseRequest{
		ID:             uuid.NewString(),
		ProjectID:      in.ProjectID,
		Amount:         in.Amount,
		Status:         domain.ExpenseStatusVoting,
		CreationTxHash: domain.NormalizeTxHash(in.TxHash),
		DocumentRef:    in.DocumentRef,
		CreatedAt:      now,
		VotingDeadline: now.Add(s.votingWindow),
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}

	s.bumpStats(ctx, now, map[string]int{domain.StatRequestsCreated: 1})
	s.logger.Info().
		Str("request_id", e.ID).
		Str("project_id", e.ProjectID).
		Int64("amount", e.Amount).
		Time("voting_deadline", e.VotingDeadline).
		Msg("expense request opened")
	return e, nil
}

// CastVoteInput carries a donor's ballot.
type CastVoteInput struct {
	Caller     Identity
	RequestID  string
	Choice     string
	Motivation string
	TxHash     string
}

// CastVote records a ballot and returns the tally after it. Only donors to
// the request's project may vote, each exactly once, inside the window.
func (s *ExpenseService) CastVote(ctx context.Context, in CastVoteInput) (*domain.ExpenseRequest, error) {
	if !domain.ValidID(in.Caller.ID) || !domain.ValidID(in.RequestID) {
		return nil, domain.ErrInvalidID
	}
	choice := domain.VoteChoice(in.Choice)
	if choice != domain.VoteFor && choice != domain.VoteAgainst {
		return nil, domain.ErrInvalidChoice
	}
	if !domain.ValidTxHash(in.TxHash) {
		return nil, domain.ErrInvalidProofHash
	}

	req, err := s.expenses.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	isDonor, err := s.donations.DonorExists(ctx, req.ProjectID, in.Caller.ID)
	if err != nil {
		return nil, err
	}
	if !isDonor {
		return nil, domain.ErrNotDonor
	}

	now := s.now()
	if req.Status != domain.ExpenseStatusVoting || now.After(req.VotingDeadline) {
		return nil, domain.ErrVotingClosed
	}

	v := &domain.Vote{
		ID:         uuid.NewString(),
		RequestID:  in.RequestID,
		VoterID:    in.Caller.ID,
		Choice:     choice,
		Motivation: in.Motivation,
		TxHash:     domain.NormalizeTxHash(in.TxHash),
	}
	tally, err := s.expenses.CastVote(ctx, v, now)
	if err != nil {
		return nil, err
	}
	req.Tally = tally

	// No resolution here. The reconciliation sweep owns outcome decisions,
	// so a mathematical majority approves within one sweep interval.
	s.logger.Info().
		Str("request_id", req.ID).
		Str("voter_id", v.VoterID).
		Str("choice", string(choice)).
		Int("for", tally.For).
		Int("against", tally.Against).
		Str("status", string(req.Status)).
		Msg("vote cast")
	return req, nil
}

// TallyView is the voting snapshot returned to clients.
type TallyView struct {
	Request        *domain.ExpenseRequest
	EligibleVoters int
	CallerVote     *domain.Vote
}

// Tally returns the live tally of a request together with the electorate
// size and, when the caller already voted, their ballot.
func (s *ExpenseService) Tally(ctx context.Context, requestID string, caller Identity) (*TallyView, error) {
	if !domain.ValidID(requestID) {
		return nil, domain.ErrInvalidID
	}
	req, err := s.expenses.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	view := &TallyView{Request: req, EligibleVoters: p.UniqueDonorCount}
	if domain.ValidID(caller.ID) {
		if v, err := s.expenses.VoteOf(ctx, requestID, caller.ID); err == nil {
			view.CallerVote = v
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return view, nil
}

// List returns a project's requests, optionally filtered by status.
func (s *ExpenseService) List(ctx context.Context, projectID string, status string) ([]domain.ExpenseRequest, error) {
	if !domain.ValidID(projectID) {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	switch domain.ExpenseStatus(status) {
	case "", domain.ExpenseStatusVoting, domain.ExpenseStatusApproved, domain.ExpenseStatusRejected:
	default:
		return nil, domain.ErrInvalidChoice
	}
	return s.expenses.ListByProject(ctx, projectID, domain.ExpenseStatus(status))
}

// ExecuteInput carries the completion proof for an approved request.
type ExecuteInput struct {
	Caller    Identity
	RequestID string
	TxHash    string
}

// Execute stamps an approved, not yet executed request with its spend
// proof. Only the project owner may execute, each request at most once.
func (s *ExpenseService) Execute(ctx context.Context, in ExecuteInput) (*domain.ExpenseRequest, error) {
	if !domain.ValidID(in.Caller.ID) || !domain.ValidID(in.RequestID) {
		return nil, domain.ErrInvalidID
	}
	if !domain.ValidTxHash(in.TxHash) {
		return nil, domain.ErrInvalidProofHash
	}
	req, err := s.expenses.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.OrgID != in.Caller.ID {
		return nil, domain.ErrNotOwner
	}

	now := s.now()
	hash := domain.NormalizeTxHash(in.TxHash)
	if err := s.expenses.MarkExecuted(ctx, in.RequestID, hash, now); err != nil {
		return nil, err
	}
	req.Executed = true
	req.ExecutionTxHash = hash
	req.ExecutedAt = &now

	s.bumpStats(ctx, now, map[string]int{domain.StatRequestsExecuted: 1})
	s.logger.Info().
		Str("request_id", req.ID).
		Str("project_id", req.ProjectID).
		Int64("amount", req.Amount).
		Msg("expense executed")
	return req, nil
}

func (s *ExpenseService) bumpStats(ctx context.Context, now time.Time, counters map[string]int) {
	if s.stats == nil {
		return
	}
	if err := s.stats.IncrementCounters(ctx, now.Format(statsDay), counters); err != nil {
		s.logger.Warn().Err(err).Msg("stats increment failed")
	}
}
