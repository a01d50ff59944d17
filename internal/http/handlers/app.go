package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/service"
)

// App bundles the services behind the HTTP surface.
type App struct {
	Projects  *service.ProjectService
	Donations *service.DonationService
	Expenses  *service.ExpenseService
	Stats     domain.StatsRepository
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": errCode, "message": message}})
}

// fail translates a domain error into its HTTP shape.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidEndDate),
		errors.Is(err, domain.ErrInvalidProofHash),
		errors.Is(err, domain.ErrInvalidDocumentRef),
		errors.Is(err, domain.ErrInvalidChoice):
		a.error(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotOrganization),
		errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrOwnProjectDonation),
		errors.Is(err, domain.ErrNotDonor):
		a.error(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrFundingClosed),
		errors.Is(err, domain.ErrTargetExceeded),
		errors.Is(err, domain.ErrDuplicateProof),
		errors.Is(err, domain.ErrProjectNotActive),
		errors.Is(err, domain.ErrRequestInFlight),
		errors.Is(err, domain.ErrBudgetExceeded),
		errors.Is(err, domain.ErrVotingClosed),
		errors.Is(err, domain.ErrDuplicateVote),
		errors.Is(err, domain.ErrNotApproved),
		errors.Is(err, domain.ErrAlreadyExecuted),
		errors.Is(err, domain.ErrHasDonations):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) caller(r *http.Request) service.Identity {
	return service.Identity{
		ID:   middleware.UserIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
}
