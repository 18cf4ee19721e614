package tickets

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/httpx"
	"mung-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the ticket template subtree of one tenant.
func RegisterRoutes(r chi.Router, svc *Service, log *slog.Logger) {
	r.Route("/tickets", func(tr chi.Router) {
		tr.Get("/", listTemplatesHandler(svc, log))
		tr.Post("/", createTemplateHandler(svc, log))
		tr.Delete("/{ticketID}", deleteTemplateHandler(svc, log))
	})
}

func tenantID(r *http.Request) string {
	return chi.URLParam(r, "petKindergardenID")
}

func requireUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		apperr.Write(w, r, log, apperr.AuthenticationFailed("authentication_failed", "authentication required"))
		return "", false
	}
	return claims.UserID, true
}

type ticketResponse struct {
	ID                     string    `json:"id"`
	TicketType             string    `json:"ticket_type"`
	UsageTime              int       `json:"usage_time"`
	UsageCount             int       `json:"usage_count"`
	UsagePeriodInDaysCount int       `json:"usage_period_in_days_count"`
	Price                  int       `json:"price"`
	IsDeleted              bool      `json:"is_deleted"`
	CreatedAt              time.Time `json:"created_at"`
}

func toTicketResponse(t Ticket) ticketResponse {
	return ticketResponse{
		ID:                     t.ID,
		TicketType:             string(t.TicketType),
		UsageTime:              t.UsageTime,
		UsageCount:             t.UsageCount,
		UsagePeriodInDaysCount: t.UsagePeriodInDaysCount,
		Price:                  t.Price,
		IsDeleted:              t.Lifecycle.Deleted(),
		CreatedAt:              t.CreatedAt,
	}
}

func listTemplatesHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		ts, err := svc.ListTemplates(r.Context(), userID, tenantID(r))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		out := make([]ticketResponse, 0, len(ts))
		for _, t := range ts {
			out = append(out, toTicketResponse(t))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

type createTicketRequest struct {
	TicketType             string `json:"ticket_type"`
	UsageTime              int    `json:"usage_time"`
	UsageCount             int    `json:"usage_count"`
	UsagePeriodInDaysCount int    `json:"usage_period_in_days_count"`
	Price                  int    `json:"price"`
}

func createTemplateHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req createTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		t, err := svc.CreateTemplate(r.Context(), userID, tenantID(r), TemplateInput{
			TicketType:             req.TicketType,
			UsageTime:              req.UsageTime,
			UsageCount:             req.UsageCount,
			UsagePeriodInDaysCount: req.UsagePeriodInDaysCount,
			Price:                  req.Price,
		})
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toTicketResponse(t))
	}
}

func deleteTemplateHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		if err := svc.DeleteTemplate(r.Context(), userID, tenantID(r), chi.URLParam(r, "ticketID")); err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
