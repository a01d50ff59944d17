package handlers

import (
	"net/http"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	s, err := a.Stats.Summary(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"donations":         s.Donations,
		"donated_amount":    s.DonatedAmount,
		"requests_created":  s.RequestsCreated,
		"requests_approved": s.RequestsApproved,
		"requests_rejected": s.RequestsRejected,
		"requests_executed": s.RequestsExecuted,
		"updated_at":        s.UpdatedAt,
	})
}
