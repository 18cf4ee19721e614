package reservations

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/httpx"
	"mung-manager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the reservation subtree of one tenant.
func RegisterRoutes(r chi.Router, svc *Service, log *slog.Logger) {
	r.Route("/reservations", func(rr chi.Router) {
		rr.Get("/", listHandler(svc, log))
		rr.Post("/", createHandler(svc, log))
		rr.Get("/calendar", calendarHandler(svc, log))

		rr.Get("/day-off", listDayOffsHandler(svc, log))
		rr.Post("/day-off", createDayOffHandler(svc, log))
		rr.Delete("/day-off/{dayOffID}", deleteDayOffHandler(svc, log))

		rr.Get("/{reservationID}", getHandler(svc, log))
		rr.Patch("/{reservationID}/toggle-is-attended", toggleAttendanceHandler(svc, log))
		rr.Patch("/{reservationID}/status", updateStatusHandler(svc, log))
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

// yearMonth parses the year and month query parameters, defaulting to the
// current month.
func yearMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, apperr.Validation("invalid_parameter_format", "year must be a positive integer")
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, apperr.Validation("invalid_parameter_format", "month must be between 1 and 12")
		}
		month = time.Month(n)
	}
	return year, month, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_parameter_format", "date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

type reservationResponse struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	CustomerPetID    string    `json:"customer_pet_id"`
	CustomerTicketID string    `json:"customer_ticket_id"`
	ReservedAt       time.Time `json:"reserved_at"`
	Status           string    `json:"reservation_status"`
	IsAttended       bool      `json:"is_attended"`
	CreatedAt        time.Time `json:"created_at"`
}

func toReservationResponse(res Reservation) reservationResponse {
	return reservationResponse{
		ID:               res.ID,
		CustomerID:       res.CustomerID,
		CustomerPetID:    res.CustomerPetID,
		CustomerTicketID: res.CustomerTicketID,
		ReservedAt:       res.ReservedAt,
		Status:           string(res.Status),
		IsAttended:       res.IsAttended,
		CreatedAt:        res.CreatedAt,
	}
}

func listHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		raw := r.URL.Query().Get("date")
		if raw == "" {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "date is required"))
			return
		}
		date, err := parseDate(raw)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		rs, err := svc.ListByDate(r.Context(), userID, tenantID(r), date)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		out := make([]reservationResponse, 0, len(rs))
		for _, res := range rs {
			out = append(out, toReservationResponse(res))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

type createReservationRequest struct {
	CustomerID       string    `json:"customer_id"`
	CustomerPetID    string    `json:"customer_pet_id"`
	CustomerTicketID string    `json:"customer_ticket_id"`
	ReservedAt       time.Time `json:"reserved_at"`
}

func createHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req createReservationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		res, err := svc.Create(r.Context(), userID, tenantID(r), CreateInput{
			CustomerID:       req.CustomerID,
			CustomerPetID:    req.CustomerPetID,
			CustomerTicketID: req.CustomerTicketID,
			ReservedAt:       req.ReservedAt,
		})
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

func getHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		res, err := svc.Get(r.Context(), userID, tenantID(r), chi.URLParam(r, "reservationID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func toggleAttendanceHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		res, err := svc.ToggleAttendance(r.Context(), userID, tenantID(r), chi.URLParam(r, "reservationID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, struct {
			ID         string `json:"id"`
			IsAttended bool   `json:"is_attended"`
		}{ID: res.ID, IsAttended: res.IsAttended})
	}
}

func updateStatusHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req struct {
			Status string `json:"reservation_status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		res, err := svc.UpdateStatus(r.Context(), userID, tenantID(r), chi.URLParam(r, "reservationID"), Status(req.Status))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

type dayOffResponse struct {
	ID       string `json:"id"`
	DayOffAt string `json:"day_off_at"`
}

func listDayOffsHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}
		year, month, err := yearMonth(r, time.Now())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		ds, err := svc.ListDayOffs(r.Context(), userID, tenantID(r), year, month)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		out := make([]dayOffResponse, 0, len(ds))
		for _, d := range ds {
			out = append(out, dayOffResponse{ID: d.ID, DayOffAt: DateKey(d.DayOffAt)})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func createDayOffHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req struct {
			DayOffAt string `json:"day_off_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}
		date, err := parseDate(req.DayOffAt)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		d, err := svc.CreateDayOff(r.Context(), userID, tenantID(r), date)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, dayOffResponse{ID: d.ID, DayOffAt: DateKey(d.DayOffAt)})
	}
}

func deleteDayOffHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		if err := svc.DeleteDayOff(r.Context(), userID, tenantID(r), chi.URLParam(r, "dayOffID")); err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type calendarDayResponse struct {
	Date             string   `json:"date"`
	ReservationCount int      `json:"reservation_count"`
	IsDayOff         bool     `json:"is_day_off"`
	SpecialDayNames  []string `json:"special_day_names"`
	IsOverDailyLimit bool     `json:"is_over_daily_limit"`
}

func calendarHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}
		year, month, err := yearMonth(r, time.Now())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		days, err := svc.Calendar(r.Context(), userID, tenantID(r), year, month)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		out := make([]calendarDayResponse, 0, len(days))
		for _, d := range days {
			names := d.SpecialDayNames
			if names == nil {
				names = []string{}
			}
			out = append(out, calendarDayResponse{
				Date:             DateKey(d.Date),
				ReservationCount: d.ReservationCount,
				IsDayOff:         d.IsDayOff,
				SpecialDayNames:  names,
				IsOverDailyLimit: d.IsOverDailyLimit,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
