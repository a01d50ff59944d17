package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

const window = 72 * time.Hour

// fundProject seeds an active project funded to its target by the given
// donors, each contributing an equal share.
func fundProject(t *testing.T, store *MemoryStore, now time.Time, donors []string) *domain.Project {
	t.Helper()
	ctx := context.Background()
	target := int64(100 * len(donors))
	p := seedProject(t, store, target, now.Add(24*time.Hour))
	for i, donor := range donors {
		d := &domain.Donation{
			ID:        uuid.NewString(),
			ProjectID: p.ID,
			DonorID:   donor,
			Amount:    100,
			TxHash:    testHash(5000 + i),
		}
		if _, err := store.Record(ctx, d, now); err != nil {
			t.Fatalf("fund donation %d: %v", i, err)
		}
	}
	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if got.Status != domain.ProjectStatusActive {
		t.Fatalf("funded project status = %s, want active", got.Status)
	}
	return got
}

func newExpenseService(store *MemoryStore, now time.Time) *ExpenseService {
	svc := NewExpenseService(store, store, store.Expenses(), store, window, testLogger)
	svc.now = fixedClock(now)
	return svc
}

func TestExpenseCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("opens a voting request with the configured deadline", func(t *testing.T) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()})
		svc := newExpenseService(store, now)

		req, err := svc.Create(ctx, CreateExpenseInput{
			Caller:      Identity{ID: p.OrgID, Role: RoleOrganization},
			ProjectID:   p.ID,
			Amount:      40,
			TxHash:      testHash(1),
			DocumentRef: "invoices/q1.pdf",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if req.Status != domain.ExpenseStatusVoting {
			t.Fatalf("status = %s, want voting", req.Status)
		}
		if !req.VotingDeadline.Equal(now.Add(window)) {
			t.Fatalf("deadline = %v, want %v", req.VotingDeadline, now.Add(window))
		}
	})

	t.Run("second open request is refused", func(t *testing.T) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()})
		svc := newExpenseService(store, now)
		caller := Identity{ID: p.OrgID, Role: RoleOrganization}

		if _, err := svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 40, TxHash: testHash(2), DocumentRef: "a.pdf",
		}); err != nil {
			t.Fatalf("first create: %v", err)
		}
		_, err := svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 10, TxHash: testHash(3), DocumentRef: "b.pdf",
		})
		if !errors.Is(err, domain.ErrRequestInFlight) {
			t.Fatalf("err = %v, want ErrRequestInFlight", err)
		}
	})

	t.Run("approved but unexecuted request still blocks a new one", func(t *testing.T) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()})
		svc := newExpenseService(store, now)
		caller := Identity{ID: p.OrgID, Role: RoleOrganization}

		req, err := svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 40, TxHash: testHash(4), DocumentRef: "a.pdf",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := store.Resolve(ctx, req.ID, domain.ExpenseStatusApproved, now); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		_, err = svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 10, TxHash: testHash(5), DocumentRef: "b.pdf",
		})
		if !errors.Is(err, domain.ErrRequestInFlight) {
			t.Fatalf("err = %v, want ErrRequestInFlight", err)
		}

		if _, err := svc.Execute(ctx, ExecuteInput{Caller: caller, RequestID: req.ID, TxHash: testHash(6)}); err != nil {
			t.Fatalf("execute: %v", err)
		}
		if _, err := svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 10, TxHash: testHash(7), DocumentRef: "b.pdf",
		}); err != nil {
			t.Fatalf("create after execution: %v", err)
		}
	})

	t.Run("budget counts previously approved requests", func(t *testing.T) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()}) // raised 100
		svc := newExpenseService(store, now)
		caller := Identity{ID: p.OrgID, Role: RoleOrganization}

		req, err := svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 70, TxHash: testHash(8), DocumentRef: "a.pdf",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := store.Resolve(ctx, req.ID, domain.ExpenseStatusApproved, now); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, err := svc.Execute(ctx, ExecuteInput{Caller: caller, RequestID: req.ID, TxHash: testHash(9)}); err != nil {
			t.Fatalf("execute: %v", err)
		}

		_, err = svc.Create(ctx, CreateExpenseInput{
			Caller: caller, ProjectID: p.ID, Amount: 40, TxHash: testHash(10), DocumentRef: "b.pdf",
		})
		if !errors.Is(err, domain.ErrBudgetExceeded) {
			t.Fatalf("err = %v, want ErrBudgetExceeded", err)
		}
	})

	t.Run("precondition errors", func(t *testing.T) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()})
		raising := seedProject(t, store, 500, now.Add(24*time.Hour))
		svc := newExpenseService(store, now)
		owner := Identity{ID: p.OrgID, Role: RoleOrganization}

		cases := []struct {
			name string
			in   CreateExpenseInput
			want error
		}{
			{"not the owner", CreateExpenseInput{Caller: Identity{ID: uuid.NewString()}, ProjectID: p.ID, Amount: 10, TxHash: testHash(11), DocumentRef: "a.pdf"}, domain.ErrNotOwner},
			{"project still raising", CreateExpenseInput{Caller: Identity{ID: raising.OrgID}, ProjectID: raising.ID, Amount: 10, TxHash: testHash(12), DocumentRef: "a.pdf"}, domain.ErrProjectNotActive},
			{"amount above balance", CreateExpenseInput{Caller: owner, ProjectID: p.ID, Amount: 101, TxHash: testHash(13), DocumentRef: "a.pdf"}, domain.ErrBudgetExceeded},
			{"bad document extension", CreateExpenseInput{Caller: owner, ProjectID: p.ID, Amount: 10, TxHash: testHash(14), DocumentRef: "a.exe"}, domain.ErrInvalidDocumentRef},
			{"bad proof hash", CreateExpenseInput{Caller: owner, ProjectID: p.ID, Amount: 10, TxHash: "xyz", DocumentRef: "a.pdf"}, domain.ErrInvalidProofHash},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tc.in)
				if !errors.Is(err, tc.want) {
					t.Fatalf("err = %v, want %v", err, tc.want)
				}
			})
		}
	})
}

func TestExpenseVoting(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, donors []string) (*MemoryStore, *ExpenseService, *domain.Project, *domain.ExpenseRequest) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, donors)
		svc := newExpenseService(store, now)
		req, err := svc.Create(ctx, CreateExpenseInput{
			Caller: Identity{ID: p.OrgID, Role: RoleOrganization}, ProjectID: p.ID,
			Amount: 50, TxHash: testHash(20), DocumentRef: "a.pdf",
		})
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		return store, svc, p, req
	}

	t.Run("voting never resolves in the vote path", func(t *testing.T) {
		// Resolution belongs to the reconciliation sweep alone, so even a
		// tally that already settles the outcome leaves the request voting.
		donors := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
		_, svc, _, req := setup(t, donors)

		for i, donor := range donors {
			got, err := svc.CastVote(ctx, CastVoteInput{
				Caller: Identity{ID: donor}, RequestID: req.ID, Choice: "for", TxHash: testHash(21 + i),
			})
			if err != nil {
				t.Fatalf("vote %d: %v", i, err)
			}
			if got.Status != domain.ExpenseStatusVoting {
				t.Fatalf("status after vote %d = %s, want voting", i, got.Status)
			}
			if got.Tally.For != i+1 {
				t.Fatalf("tally for = %d, want %d", got.Tally.For, i+1)
			}
		}
	})

	t.Run("non-donor cannot vote", func(t *testing.T) {
		_, svc, _, req := setup(t, []string{uuid.NewString()})
		_, err := svc.CastVote(ctx, CastVoteInput{
			Caller: Identity{ID: uuid.NewString()}, RequestID: req.ID, Choice: "for", TxHash: testHash(40),
		})
		if !errors.Is(err, domain.ErrNotDonor) {
			t.Fatalf("err = %v, want ErrNotDonor", err)
		}
	})

	t.Run("second ballot by the same donor is refused", func(t *testing.T) {
		donors := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
		_, svc, _, req := setup(t, donors)

		if _, err := svc.CastVote(ctx, CastVoteInput{
			Caller: Identity{ID: donors[0]}, RequestID: req.ID, Choice: "for", TxHash: testHash(41),
		}); err != nil {
			t.Fatalf("first ballot: %v", err)
		}
		_, err := svc.CastVote(ctx, CastVoteInput{
			Caller: Identity{ID: donors[0]}, RequestID: req.ID, Choice: "against", TxHash: testHash(42),
		})
		if !errors.Is(err, domain.ErrDuplicateVote) {
			t.Fatalf("err = %v, want ErrDuplicateVote", err)
		}
	})

	t.Run("ballots after the deadline are refused", func(t *testing.T) {
		donors := []string{uuid.NewString(), uuid.NewString()}
		_, svc, _, req := setup(t, donors)
		svc.now = fixedClock(now.Add(window + time.Minute))

		_, err := svc.CastVote(ctx, CastVoteInput{
			Caller: Identity{ID: donors[0]}, RequestID: req.ID, Choice: "for", TxHash: testHash(43),
		})
		if !errors.Is(err, domain.ErrVotingClosed) {
			t.Fatalf("err = %v, want ErrVotingClosed", err)
		}
	})

	t.Run("tally view reports electorate and caller ballot", func(t *testing.T) {
		donors := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
		_, svc, _, req := setup(t, donors)

		if _, err := svc.CastVote(ctx, CastVoteInput{
			Caller: Identity{ID: donors[0]}, RequestID: req.ID, Choice: "against",
			Motivation: "quote looks inflated", TxHash: testHash(44),
		}); err != nil {
			t.Fatalf("vote: %v", err)
		}

		view, err := svc.Tally(ctx, req.ID, Identity{ID: donors[0]})
		if err != nil {
			t.Fatalf("tally: %v", err)
		}
		if view.EligibleVoters != 3 {
			t.Fatalf("eligible = %d, want 3", view.EligibleVoters)
		}
		if view.Request.Tally.Against != 1 || view.Request.Tally.For != 0 {
			t.Fatalf("tally = %+v, want 0 for / 1 against", view.Request.Tally)
		}
		if view.CallerVote == nil || view.CallerVote.Choice != domain.VoteAgainst {
			t.Fatalf("caller ballot = %+v, want recorded against vote", view.CallerVote)
		}

		other, err := svc.Tally(ctx, req.ID, Identity{ID: donors[1]})
		if err != nil {
			t.Fatalf("tally for non-voter: %v", err)
		}
		if other.CallerVote != nil {
			t.Fatalf("non-voter ballot = %+v, want nil", other.CallerVote)
		}
	})
}

func TestExpenseExecute(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)

	setup := func(t *testing.T) (*MemoryStore, *ExpenseService, Identity, *domain.ExpenseRequest) {
		store := NewMemoryStore()
		p := fundProject(t, store, now, []string{uuid.NewString()})
		svc := newExpenseService(store, now)
		owner := Identity{ID: p.OrgID, Role: RoleOrganization}
		req, err := svc.Create(ctx, CreateExpenseInput{
			Caller: owner, ProjectID: p.ID, Amount: 50, TxHash: testHash(50), DocumentRef: "a.pdf",
		})
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		return store, svc, owner, req
	}

	t.Run("unapproved request cannot execute", func(t *testing.T) {
		_, svc, owner, req := setup(t)
		_, err := svc.Execute(ctx, ExecuteInput{Caller: owner, RequestID: req.ID, TxHash: testHash(51)})
		if !errors.Is(err, domain.ErrNotApproved) {
			t.Fatalf("err = %v, want ErrNotApproved", err)
		}
	})

	t.Run("only the owner executes, exactly once", func(t *testing.T) {
		store, svc, owner, req := setup(t)
		if _, err := store.Resolve(ctx, req.ID, domain.ExpenseStatusApproved, now); err != nil {
			t.Fatalf("resolve: %v", err)
		}

		_, err := svc.Execute(ctx, ExecuteInput{Caller: Identity{ID: uuid.NewString()}, RequestID: req.ID, TxHash: testHash(52)})
		if !errors.Is(err, domain.ErrNotOwner) {
			t.Fatalf("stranger execute: err = %v, want ErrNotOwner", err)
		}

		got, err := svc.Execute(ctx, ExecuteInput{Caller: owner, RequestID: req.ID, TxHash: testHash(53)})
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !got.Executed || got.ExecutionTxHash != testHash(53) {
			t.Fatalf("executed request = %+v", got)
		}

		_, err = svc.Execute(ctx, ExecuteInput{Caller: owner, RequestID: req.ID, TxHash: testHash(54)})
		if !errors.Is(err, domain.ErrAlreadyExecuted) {
			t.Fatalf("second execute: err = %v, want ErrAlreadyExecuted", err)
		}
	})

	t.Run("rejected request cannot execute", func(t *testing.T) {
		store, svc, owner, req := setup(t)
		if _, err := store.Resolve(ctx, req.ID, domain.ExpenseStatusRejected, now); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		_, err := svc.Execute(ctx, ExecuteInput{Caller: owner, RequestID: req.ID, TxHash: testHash(55)})
		if !errors.Is(err, domain.ErrNotApproved) {
			t.Fatalf("err = %v, want ErrNotApproved", err)
		}
	})
}
