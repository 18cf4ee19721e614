package customers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/tickets"
	"mung-manager/internal/httpx"
	"mung-manager/internal/middleware"
	"mung-manager/internal/pagination"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the customer subtree of one tenant. The
// customer-scoped ticket endpoints live here too, mirroring how the ledger
// is consumed from the customer screens.
func RegisterRoutes(r chi.Router, svc *Service, ticketsSvc *tickets.Service, log *slog.Logger) {
	r.Route("/customers", func(cr chi.Router) {
		cr.Get("/", listHandler(svc, ticketsSvc, log))
		cr.Post("/", createHandler(svc, log))
		cr.Post("/batch-register", batchRegisterHandler(svc, log))
		cr.Get("/tickets", activeTemplatesHandler(ticketsSvc, log))

		cr.Get("/{customerID}", getHandler(svc, log))
		cr.Put("/{customerID}", updateHandler(svc, log))
		cr.Patch("/{customerID}/toggle-is-active", toggleActiveHandler(svc, log))

		cr.Get("/{customerID}/tickets", registrationsHandler(ticketsSvc, log))
		cr.Get("/{customerID}/tickets/active", activeTicketsHandler(ticketsSvc, log))
		cr.Get("/{customerID}/tickets/logs", usageLogsHandler(ticketsSvc, log))
		cr.Post("/{customerID}/tickets/{ticketID}", registerTicketHandler(ticketsSvc, log))
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

type petResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ticketSummaryResponse struct {
	ID          string `json:"id"`
	TotalCount  int    `json:"total_count"`
	UsedCount   int    `json:"used_count"`
	UnusedCount int    `json:"unused_count"`
	ExpiredAt   string `json:"expired_at"`
}

type customerResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	PhoneNumber string                  `json:"phone_number"`
	Pets        []petResponse           `json:"customer_pets"`
	Tickets     []ticketSummaryResponse `json:"customer_tickets,omitempty"`
	Memo        string                  `json:"memo"`
	IsActive    bool                    `json:"is_active"`
	IsKakaoUser bool                    `json:"is_kakao_user"`
	CreatedAt   time.Time               `json:"created_at"`
}

func toCustomerResponse(c Customer) customerResponse {
	pets := make([]petResponse, 0)
	for _, p := range c.LivePets() {
		pets = append(pets, petResponse{ID: p.ID, Name: p.Name})
	}
	return customerResponse{
		ID:          c.ID,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Pets:        pets,
		Memo:        c.Memo,
		IsActive:    c.Lifecycle.IsActive(),
		IsKakaoUser: c.IsKakaoUser(),
		CreatedAt:   c.CreatedAt,
	}
}

func listHandler(svc *Service, ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		q := r.URL.Query()
		p, err := pagination.FromQuery(q)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		f := Filters{
			Name:        q.Get("customer_name"),
			PhoneNumber: q.Get("customer_phone_number"),
			PetName:     q.Get("customer_pet_name"),
		}
		if v := q.Get("is_active"); v != "" {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "is_active must be a boolean"))
				return
			}
			f.IsActive = &b
		}

		page, err := svc.List(r.Context(), userID, tenantID(r), f, p)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := pagination.Page[customerResponse]{
			Count:   page.Count,
			Limit:   page.Limit,
			Offset:  page.Offset,
			Results: make([]customerResponse, 0, len(page.Results)),
		}
		for _, c := range page.Results {
			resp := toCustomerResponse(c)
			// Embed active ticket balances; a failure here is a real error,
			// not an empty list.
			cts, terr := ticketsSvc.SummariesForCustomer(r.Context(), c.ID)
			if terr != nil {
				apperr.Write(w, r, log, apperr.Unknown(terr))
				return
			}
			for _, ct := range cts {
				resp.Tickets = append(resp.Tickets, toTicketSummary(ct))
			}
			out.Results = append(out.Results, resp)
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func toTicketSummary(ct tickets.CustomerTicket) ticketSummaryResponse {
	return ticketSummaryResponse{
		ID:          ct.ID,
		TotalCount:  ct.TotalCount,
		UsedCount:   ct.UsedCount,
		UnusedCount: ct.UnusedCount(),
		ExpiredAt:   ct.ExpiredAt.Format(time.RFC3339),
	}
}

type createCustomerRequest struct {
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phone_number"`
	Pets        []string `json:"pets"`
}

func createHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req createCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		c, err := svc.Create(r.Context(), userID, tenantID(r), CreateInput{
			Name:        req.Name,
			PhoneNumber: req.PhoneNumber,
			PetNames:    req.Pets,
		})
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toCustomerResponse(c))
	}
}

// batchRegisterHandler accepts a multipart upload under the "csv_file"
// field, matching the original client contract. XLSX files arrive through
// the same field.
func batchRegisterHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "multipart form with csv_file is required"))
			return
		}
		file, header, err := r.FormFile("csv_file")
		if err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "csv_file is required"))
			return
		}
		defer file.Close()

		res, err := svc.BatchCreateFromFile(r.Context(), userID, tenantID(r), header.Filename, file)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		created := make([]customerResponse, 0, len(res.Created))
		for _, c := range res.Created {
			created = append(created, toCustomerResponse(c))
		}
		httpx.WriteJSON(w, http.StatusCreated, struct {
			Created []customerResponse `json:"created"`
			Errors  []RowError         `json:"errors"`
		}{Created: created, Errors: res.Errors})
	}
}

func getHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		c, err := svc.Get(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCustomerResponse(c))
	}
}

type updateCustomerRequest struct {
	Name         string   `json:"name"`
	PhoneNumber  string   `json:"phone_number"`
	PetsToAdd    []string `json:"pets_to_add"`
	PetsToDelete []string `json:"pets_to_delete"`
	Memo         string   `json:"memo"`
}

func updateHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		var req updateCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.Write(w, r, log, apperr.Validation("invalid_parameter_format", "invalid json body"))
			return
		}

		c, err := svc.Update(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"), UpdateInput{
			Name:         req.Name,
			PhoneNumber:  req.PhoneNumber,
			PetsToAdd:    req.PetsToAdd,
			PetsToDelete: req.PetsToDelete,
			Memo:         req.Memo,
		})
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCustomerResponse(c))
	}
}

func toggleActiveHandler(svc *Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		c, err := svc.ToggleActive(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		}{ID: c.ID, IsActive: c.Lifecycle.IsActive()})
	}
}

type templateResponse struct {
	ID                     string `json:"id"`
	TicketType             string `json:"ticket_type"`
	UsageTime              int    `json:"usage_time"`
	UsageCount             int    `json:"usage_count"`
	UsagePeriodInDaysCount int    `json:"usage_period_in_days_count"`
	Price                  int    `json:"price"`
}

// activeTemplatesHandler lists the templates available when registering a
// ticket for a customer.
func activeTemplatesHandler(ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		ts, err := ticketsSvc.ListTemplates(r.Context(), userID, tenantID(r))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := make([]templateResponse, 0, len(ts))
		for _, t := range ts {
			out = append(out, templateResponse{
				ID:                     t.ID,
				TicketType:             string(t.TicketType),
				UsageTime:              t.UsageTime,
				UsageCount:             t.UsageCount,
				UsagePeriodInDaysCount: t.UsagePeriodInDaysCount,
				Price:                  t.Price,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func registerTicketHandler(ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		ct, err := ticketsSvc.Register(r.Context(), userID, tenantID(r),
			chi.URLParam(r, "customerID"), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, struct {
			ID         string    `json:"id"`
			TotalCount int       `json:"total_count"`
			UsedCount  int       `json:"used_count"`
			ExpiredAt  time.Time `json:"expired_at"`
			CreatedAt  time.Time `json:"created_at"`
		}{ID: ct.ID, TotalCount: ct.TotalCount, UsedCount: ct.UsedCount, ExpiredAt: ct.ExpiredAt, CreatedAt: ct.CreatedAt})
	}
}

func activeTicketsHandler(ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}

		cts, err := ticketsSvc.ListActive(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"))
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := make([]ticketSummaryResponse, 0, len(cts))
		for _, ct := range cts {
			out = append(out, toTicketSummary(ct))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

type registrationResponse struct {
	ID                     string    `json:"id"`
	TicketType             string    `json:"ticket_type"`
	UsageTime              int       `json:"usage_time"`
	UsageCount             int       `json:"usage_count"`
	UsagePeriodInDaysCount int       `json:"usage_period_in_days_count"`
	Price                  int       `json:"price"`
	CreatedAt              time.Time `json:"created_at"`
	ExpiredAt              time.Time `json:"expired_at"`
	Status                 string    `json:"status"`
}

func registrationsHandler(ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}
		p, err := pagination.FromQuery(r.URL.Query())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		page, err := ticketsSvc.ListRegistrations(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"), p)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := pagination.Page[registrationResponse]{
			Count:   page.Count,
			Limit:   page.Limit,
			Offset:  page.Offset,
			Results: make([]registrationResponse, 0, len(page.Results)),
		}
		for _, e := range page.Results {
			out.Results = append(out.Results, registrationResponse{
				ID:                     e.Log.ID,
				TicketType:             string(e.Ticket.TicketType),
				UsageTime:              e.Ticket.UsageTime,
				UsageCount:             e.Ticket.UsageCount,
				UsagePeriodInDaysCount: e.Ticket.UsagePeriodInDaysCount,
				Price:                  e.Ticket.Price,
				CreatedAt:              e.Log.CreatedAt,
				ExpiredAt:              e.CustomerTicket.ExpiredAt,
				Status:                 e.CustomerTicket.Status(time.Now()),
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

type usageLogResponse struct {
	ID                string    `json:"id"`
	TicketType        string    `json:"ticket_type"`
	UsageTime         int       `json:"usage_time"`
	UsageCount        int       `json:"usage_count"`
	UsedCount         int       `json:"used_count"`
	UnusedCount       int       `json:"unused_count"`
	IsAttended        bool      `json:"is_attended"`
	ReservedAt        time.Time `json:"reserved_at"`
	ExpiredAt         time.Time `json:"expired_at"`
	ReservationStatus string    `json:"reservation_status"`
}

func usageLogsHandler(ticketsSvc *tickets.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r, log)
		if !ok {
			return
		}
		p, err := pagination.FromQuery(r.URL.Query())
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		page, err := ticketsSvc.ListUsages(r.Context(), userID, tenantID(r), chi.URLParam(r, "customerID"), p)
		if err != nil {
			apperr.Write(w, r, log, err)
			return
		}

		out := pagination.Page[usageLogResponse]{
			Count:   page.Count,
			Limit:   page.Limit,
			Offset:  page.Offset,
			Results: make([]usageLogResponse, 0, len(page.Results)),
		}
		for _, e := range page.Results {
			out.Results = append(out.Results, usageLogResponse{
				ID:                e.Log.ID,
				TicketType:        string(e.Ticket.TicketType),
				UsageTime:         e.Ticket.UsageTime,
				UsageCount:        e.Ticket.UsageCount,
				UsedCount:         e.Log.UsedCount,
				UnusedCount:       e.CustomerTicket.UnusedCount(),
				IsAttended:        e.IsAttended,
				ReservedAt:        e.ReservedAt,
				ExpiredAt:         e.CustomerTicket.ExpiredAt,
				ReservationStatus: e.ReservationStatus,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
