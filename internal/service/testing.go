package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"server/internal/domain"
)

// MemoryStore is an in-memory implementation of every repository interface,
// used by service and handler tests. It honors the same error contracts and
// conditional-write semantics as the PostgreSQL repositories, with a single
// mutex standing in for row locks and unique indexes.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
	expenses map[string]*domain.ExpenseRequest
	byProj   map[string][]domain.Donation
	votes    map[string]map[string]*domain.Vote // requestID -> voterID
	txHashes map[string]bool
	stats    map[string]map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*domain.Project),
		expenses: make(map[string]*domain.ExpenseRequest),
		byProj:   make(map[string][]domain.Donation),
		votes:    make(map[string]map[string]*domain.Vote),
		txHashes: make(map[string]bool),
		stats:    make(map[string]map[string]int),
	}
}

func (m *MemoryStore) Create(ctx context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != domain.ProjectStatusRaising || p.CurrentAmount != 0 {
		return domain.ErrHasDonations
	}
	p.Status = domain.ProjectStatusCancelled
	return nil
}

func (m *MemoryStore) ActivateExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.projects {
		if p.Status == domain.ProjectStatusRaising && now.After(p.EndDate) {
			p.Status = domain.ProjectStatusActive
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Record(ctx context.Context, d *domain.Donation, now time.Time) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[d.ProjectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.CurrentAmount+d.Amount > p.TargetAmount {
		return nil, domain.ErrTargetExceeded
	}
	if m.txHashes[d.TxHash] {
		return nil, domain.ErrDuplicateProof
	}
	if p.OrgID == d.DonorID {
		return nil, domain.ErrOwnProjectDonation
	}
	if !p.AcceptsDonations(now) {
		return nil, domain.ErrFundingClosed
	}

	alreadyDonor := false
	for _, prev := range m.byProj[d.ProjectID] {
		if prev.DonorID == d.DonorID {
			alreadyDonor = true
			break
		}
	}

	d.CreatedAt = now
	m.txHashes[d.TxHash] = true
	m.byProj[d.ProjectID] = append(m.byProj[d.ProjectID], *d)
	p.CurrentAmount += d.Amount
	if !alreadyDonor {
		p.UniqueDonorCount++
	}
	if p.FundingComplete() || now.After(p.EndDate) {
		p.Status = domain.ProjectStatusActive
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]domain.Donation(nil), m.byProj[projectID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryStore) DonorExists(ctx context.Context, projectID, donorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byProj[projectID] {
		if d.DonorID == donorID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateExpense(ctx context.Context, e *domain.ExpenseRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[e.ProjectID]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != domain.ProjectStatusActive {
		return domain.ErrProjectNotActive
	}
	if m.txHashes[e.CreationTxHash] {
		return domain.ErrDuplicateProof
	}
	var approved int64
	for _, other := range m.expenses {
		if other.ProjectID != e.ProjectID {
			continue
		}
		if other.Open() {
			return domain.ErrRequestInFlight
		}
		if other.Status == domain.ExpenseStatusApproved {
			approved += other.Amount
		}
	}
	if approved+e.Amount > p.CurrentAmount {
		return domain.ErrBudgetExceeded
	}

	e.Status = domain.ExpenseStatusVoting
	m.txHashes[e.CreationTxHash] = true
	cp := *e
	m.expenses[e.ID] = &cp
	return nil
}

func (m *MemoryStore) GetExpense(ctx context.Context, id string) (*domain.ExpenseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) ListExpensesByProject(ctx context.Context, projectID string, status domain.ExpenseStatus) ([]domain.ExpenseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.ExpenseRequest
	for _, e := range m.expenses {
		if e.ProjectID != projectID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		items = append(items, *e)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStore) ListVoting(ctx context.Context) ([]domain.ExpenseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.ExpenseRequest
	for _, e := range m.expenses {
		if e.Status == domain.ExpenseStatusVoting {
			items = append(items, *e)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStore) CastVote(ctx context.Context, v *domain.Vote, now time.Time) (domain.Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[v.RequestID]
	if !ok {
		return domain.Tally{}, domain.ErrNotFound
	}
	if e.Status != domain.ExpenseStatusVoting || now.After(e.VotingDeadline) {
		return domain.Tally{}, domain.ErrVotingClosed
	}
	if m.votes[v.RequestID] == nil {
		m.votes[v.RequestID] = make(map[string]*domain.Vote)
	}
	if _, dup := m.votes[v.RequestID][v.VoterID]; dup {
		return domain.Tally{}, domain.ErrDuplicateVote
	}

	v.CreatedAt = now
	cp := *v
	m.votes[v.RequestID][v.VoterID] = &cp
	if v.Choice == domain.VoteFor {
		e.Tally.For++
	} else {
		e.Tally.Against++
	}
	return e.Tally, nil
}

func (m *MemoryStore) VoteOf(ctx context.Context, requestID, voterID string) (*domain.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.votes[requestID][voterID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) Resolve(ctx context.Context, id string, to domain.ExpenseStatus, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if e.Status != domain.ExpenseStatusVoting {
		return false, nil
	}
	e.Status = to
	t := now
	e.ResolvedAt = &t
	return true, nil
}

func (m *MemoryStore) MarkExecuted(ctx context.Context, id, txHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.Executed {
		return domain.ErrAlreadyExecuted
	}
	if e.Status != domain.ExpenseStatusApproved {
		return domain.ErrNotApproved
	}
	if m.txHashes[txHash] {
		return domain.ErrDuplicateProof
	}
	m.txHashes[txHash] = true
	e.Executed = true
	e.ExecutionTxHash = txHash
	t := now
	e.ExecutedAt = &t
	return nil
}

func (m *MemoryStore) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats[day] == nil {
		m.stats[day] = make(map[string]int)
	}
	for k, v := range counters {
		m.stats[day][k] += v
	}
	return nil
}

func (m *MemoryStore) Summary(ctx context.Context) (*domain.StatsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.StatsSummary
	for _, day := range m.stats {
		s.Donations += int64(day[domain.StatDonations])
		s.DonatedAmount += int64(day[domain.StatDonatedAmount])
		s.RequestsCreated += int64(day[domain.StatRequestsCreated])
		s.RequestsApproved += int64(day[domain.StatRequestsApproved])
		s.RequestsRejected += int64(day[domain.StatRequestsRejected])
		s.RequestsExecuted += int64(day[domain.StatRequestsExecuted])
	}
	s.UpdatedAt = time.Now().UTC()
	return &s, nil
}

// expenseRepoView adapts MemoryStore's expense methods onto the
// domain.ExpenseRepository names, which collide with the project ones.
type expenseRepoView struct{ *MemoryStore }

func (v expenseRepoView) Create(ctx context.Context, e *domain.ExpenseRequest) error {
	return v.CreateExpense(ctx, e)
}

func (v expenseRepoView) GetByID(ctx context.Context, id string) (*domain.ExpenseRequest, error) {
	return v.GetExpense(ctx, id)
}

func (v expenseRepoView) ListByProject(ctx context.Context, projectID string, status domain.ExpenseStatus) ([]domain.ExpenseRequest, error) {
	return v.ListExpensesByProject(ctx, projectID, status)
}

// Expenses exposes the store as a domain.ExpenseRepository.
func (m *MemoryStore) Expenses() domain.ExpenseRepository { return expenseRepoView{m} }

var (
	_ domain.ProjectRepository  = (*MemoryStore)(nil)
	_ domain.DonationRepository = (*MemoryStore)(nil)
	_ domain.StatsRepository    = (*MemoryStore)(nil)
	_ domain.ExpenseRepository  = expenseRepoView{}
)
