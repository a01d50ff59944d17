package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server/internal/middleware"
	"server/internal/service"
)

type donationCreateRequest struct {
	Amount int64  `json:"amount"`
	TxHash string `json:"tx_hash"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	d, p, err := a.Donations.Record(r.Context(), service.RecordDonationInput{
		Caller:       a.caller(r),
		ProjectID:    chi.URLParam(r, "id"),
		Amount:       req.Amount,
		TxHash:       req.TxHash,
		DonorCountry: middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"id":         d.ID,
		"amount":     d.Amount,
		"tx_hash":    d.TxHash,
		"created_at": d.CreatedAt,
		"project":    projectView(p),
	})
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := a.Projects.Donations(r.Context(), projectID, limit)
	if err != nil {
		a.fail(w, err)
		return
	}

	// Donor identities are visible only to the owning organization.
	showDonors := false
	if p, err := a.Projects.Get(r.Context(), projectID); err == nil {
		showDonors = p.OrgID == a.caller(r).ID
	}

	out := make([]map[string]any, 0, len(items))
	for _, d := range items {
		item := map[string]any{
			"id":         d.ID,
			"amount":     d.Amount,
			"tx_hash":    d.TxHash,
			"country":    d.DonorCountry,
			"created_at": d.CreatedAt,
		}
		if showDonors {
			item["donor_id"] = d.DonorID
		}
		out = append(out, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}
