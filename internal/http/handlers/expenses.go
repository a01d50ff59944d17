package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/service"
)

type expenseCreateRequest struct {
	Amount      int64  `json:"amount"`
	TxHash      string `json:"tx_hash"`
	DocumentRef string `json:"document_ref"`
}

func (a *App) ExpensesCreate(w http.ResponseWriter, r *http.Request) {
	var req expenseCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	e, err := a.Expenses.Create(r.Context(), service.CreateExpenseInput{
		Caller:      a.caller(r),
		ProjectID:   chi.URLParam(r, "id"),
		Amount:      req.Amount,
		TxHash:      req.TxHash,
		DocumentRef: req.DocumentRef,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, expenseView(e))
}

func (a *App) ExpensesList(w http.ResponseWriter, r *http.Request) {
	items, err := a.Expenses.List(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		a.fail(w, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, expenseView(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) ExpenseTally(w http.ResponseWriter, r *http.Request) {
	view, err := a.Expenses.Tally(r.Context(), chi.URLParam(r, "id"), a.caller(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	body := map[string]any{
		"request":         expenseView(view.Request),
		"eligible_voters": view.EligibleVoters,
	}
	if view.CallerVote != nil {
		body["my_vote"] = map[string]any{
			"choice":     string(view.CallerVote.Choice),
			"motivation": view.CallerVote.Motivation,
			"created_at": view.CallerVote.CreatedAt,
		}
	}
	a.json(w, http.StatusOK, body)
}

type voteRequest struct {
	Choice     string `json:"choice"`
	Motivation string `json:"motivation"`
	TxHash     string `json:"tx_hash"`
}

func (a *App) ExpenseVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	e, err := a.Expenses.CastVote(r.Context(), service.CastVoteInput{
		Caller:     a.caller(r),
		RequestID:  chi.URLParam(r, "id"),
		Choice:     req.Choice,
		Motivation: req.Motivation,
		TxHash:     req.TxHash,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseView(e))
}

type executeRequest struct {
	TxHash string `json:"tx_hash"`
}

func (a *App) ExpenseExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	e, err := a.Expenses.Execute(r.Context(), service.ExecuteInput{
		Caller:    a.caller(r),
		RequestID: chi.URLParam(r, "id"),
		TxHash:    req.TxHash,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, expenseView(e))
}

func expenseView(e *domain.ExpenseRequest) map[string]any {
	body := map[string]any{
		"id":              e.ID,
		"project_id":      e.ProjectID,
		"amount":          e.Amount,
		"status":          string(e.Status),
		"executed":        e.Executed,
		"creation_tx":     e.CreationTxHash,
		"document_ref":    e.DocumentRef,
		"votes_for":       e.Tally.For,
		"votes_against":   e.Tally.Against,
		"created_at":      e.CreatedAt,
		"voting_deadline": e.VotingDeadline.Format(time.RFC3339),
	}
	if e.ExecutionTxHash != "" {
		body["execution_tx"] = e.ExecutionTxHash
	}
	if e.ResolvedAt != nil {
		body["resolved_at"] = e.ResolvedAt
	}
	if e.ExecutedAt != nil {
		body["executed_at"] = e.ExecutedAt
	}
	return body
}
