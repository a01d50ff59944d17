package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/service"
)

type projectCreateRequest struct {
	Title        string `json:"title"`
	TargetAmount int64  `json:"target_amount"`
	EndDate      string `json:"end_date"`
}

func (a *App) ProjectsCreate(w http.ResponseWriter, r *http.Request) {
	var req projectCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	p, err := a.Projects.Create(r.Context(), service.CreateProjectInput{
		Caller:       a.caller(r),
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
		EndDate:      req.EndDate,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, projectView(p))
}

func (a *App) ProjectsGet(w http.ResponseWriter, r *http.Request) {
	p, err := a.Projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, projectView(p))
}

func (a *App) ProjectsCancel(w http.ResponseWriter, r *http.Request) {
	p, err := a.Projects.Cancel(r.Context(), chi.URLParam(r, "id"), a.caller(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, projectView(p))
}

func projectView(p *domain.Project) map[string]any {
	return map[string]any{
		"id":                 p.ID,
		"org_id":             p.OrgID,
		"title":              p.Title,
		"target_amount":      p.TargetAmount,
		"current_amount":     p.CurrentAmount,
		"unique_donor_count": p.UniqueDonorCount,
		"status":             string(p.Status),
		"end_date":           p.EndDate.Format(time.RFC3339),
		"created_at":         p.CreatedAt,
	}
}
