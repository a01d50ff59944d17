package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ExpenseRepositoryPG implements domain.ExpenseRepository backed by PostgreSQL.
type ExpenseRepositoryPG struct {
	sql *infra.SQLRunner
}

// NewExpenseRepository creates a new ExpenseRepositoryPG.
func NewExpenseRepository(sql *infra.SQLRunner) *ExpenseRepositoryPG {
	return &ExpenseRepositoryPG{sql: sql}
}

// Create inserts a voting request. The guarded insert evaluates the
// one-open-request rule and the approved budget atomically with the write;
// when it matches nothing the current state is re-read to name the reason.
func (r *ExpenseRepositoryPG) Create(ctx context.Context, e *domain.ExpenseRequest) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertExpenseRequest,
		e.ID, e.ProjectID, e.Amount, e.CreationTxHash, e.DocumentRef,
		e.CreatedAt, e.VotingDeadline)
	var id string
	err := row.Scan(&id)
	if err == nil {
		e.Status = domain.ExpenseStatusVoting
		return nil
	}
	if infra.IsUniqueViolation(err, "uq_expense_requests_open") {
		return domain.ErrRequestInFlight
	}
	if infra.IsUniqueViolation(err, "expense_requests_creation_tx_hash_key") {
		return domain.ErrDuplicateProof
	}
	if !infra.IsNoRows(err) {
		return err
	}
	return r.explainRejectedCreate(ctx, e)
}

// explainRejectedCreate re-reads project state to turn a silently rejected
// guarded insert into the precondition error the caller expects.
func (r *ExpenseRepositoryPG) explainRejectedCreate(ctx context.Context, e *domain.ExpenseRequest) error {
	var status domain.ProjectStatus
	var currentAmount int64
	row := r.sql.QueryRow(ctx, sqlinline.QSelectProjectByID, e.ProjectID)
	var p domain.Project
	if err := row.Scan(&p.ID, &p.OrgID, &p.Title, &p.TargetAmount, &currentAmount,
		&p.UniqueDonorCount, &status, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if status != domain.ProjectStatusActive {
		return domain.ErrProjectNotActive
	}

	open, err := r.ListByProject(ctx, e.ProjectID, "")
	if err != nil {
		return err
	}
	var approvedTotal int64
	for _, req := range open {
		if req.Open() {
			return domain.ErrRequestInFlight
		}
		if req.Status == domain.ExpenseStatusApproved {
			approvedTotal += req.Amount
		}
	}
	if approvedTotal+e.Amount > currentAmount {
		return domain.ErrBudgetExceeded
	}
	// State moved between the insert and the re-read; report the closest
	// stable cause.
	return domain.ErrRequestInFlight
}

// GetByID fetches a request by id.
func (r *ExpenseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ExpenseRequest, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectExpenseByID, id)
	e, err := scanExpense(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByProject returns a project's requests, optionally filtered by status.
func (r *ExpenseRepositoryPG) ListByProject(ctx context.Context, projectID string, status domain.ExpenseStatus) ([]domain.ExpenseRequest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListExpensesByProject, projectID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// ListVoting returns every request still in its voting phase.
func (r *ExpenseRepositoryPG) ListVoting(ctx context.Context) ([]domain.ExpenseRequest, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListVotingExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// CastVote inserts the ballot and bumps the tally in one statement. A
// miss is disambiguated into duplicate-vote vs closed-window.
func (r *ExpenseRepositoryPG) CastVote(ctx context.Context, v *domain.Vote, now time.Time) (domain.Tally, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCastVote,
		v.RequestID, v.ID, v.VoterID, string(v.Choice), v.Motivation, v.TxHash, now)
	var t domain.Tally
	err := row.Scan(&t.For, &t.Against)
	if err == nil {
		return t, nil
	}
	if infra.IsUniqueViolation(err, "expense_votes_tx_hash_key") {
		return domain.Tally{}, domain.ErrDuplicateProof
	}
	if !infra.IsNoRows(err) {
		return domain.Tally{}, err
	}

	if _, voteErr := r.VoteOf(ctx, v.RequestID, v.VoterID); voteErr == nil {
		return domain.Tally{}, domain.ErrDuplicateVote
	}
	if _, reqErr := r.GetByID(ctx, v.RequestID); reqErr != nil {
		return domain.Tally{}, reqErr
	}
	return domain.Tally{}, domain.ErrVotingClosed
}

// VoteOf returns the voter's ballot on a request.
func (r *ExpenseRepositoryPG) VoteOf(ctx context.Context, requestID, voterID string) (*domain.Vote, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectVote, requestID, voterID)
	var v domain.Vote
	var choice string
	if err := row.Scan(&v.ID, &v.RequestID, &v.VoterID, &choice, &v.Motivation, &v.TxHash, &v.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	v.Choice = domain.VoteChoice(choice)
	return &v, nil
}

// Resolve transitions a request out of voting; write-once by construction.
func (r *ExpenseRepositoryPG) Resolve(ctx context.Context, id string, to domain.ExpenseStatus, now time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResolveExpense, id, string(to), now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkExecuted stamps an approved request with its completion proof.
func (r *ExpenseRepositoryPG) MarkExecuted(ctx context.Context, id, txHash string, now time.Time) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkExpenseExecuted, id, txHash, now)
	if err != nil {
		if infra.IsUniqueViolation(err, "uq_expense_requests_execution_tx_hash") {
			return domain.ErrDuplicateProof
		}
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Executed {
		return domain.ErrAlreadyExecuted
	}
	return domain.ErrNotApproved
}

func scanExpense(row pgx.Row) (*domain.ExpenseRequest, error) {
	var e domain.ExpenseRequest
	if err := row.Scan(&e.ID, &e.ProjectID, &e.Amount, &e.Status, &e.Executed,
		&e.CreationTxHash, &e.ExecutionTxHash, &e.DocumentRef,
		&e.Tally.For, &e.Tally.Against,
		&e.CreatedAt, &e.VotingDeadline, &e.ResolvedAt, &e.ExecutedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]domain.ExpenseRequest, error) {
	var items []domain.ExpenseRequest
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var _ domain.ExpenseRepository = (*ExpenseRepositoryPG)(nil)
