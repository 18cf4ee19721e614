package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	mem "mung-manager/internal/adapters/storage/memory"
	pg "mung-manager/internal/adapters/storage/postgres"
	"mung-manager/internal/domain/customers"
	"mung-manager/internal/domain/kindergartens"
	"mung-manager/internal/domain/reservations"
	"mung-manager/internal/domain/tickets"
	"mung-manager/internal/domain/users"
	"mung-manager/internal/middleware"
	"mung-manager/internal/platform/metrics"
	"mung-manager/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Logger *slog.Logger

	// Verifier may be nil (dev mode: X-Debug-User-ID header injects the
	// identity).
	Verifier auth.TokenVerifier
	Issuer   auth.TokenIssuer
	Flow     auth.SocialLoginFlow

	// DB selects Postgres repos; nil falls back to in-memory ones.
	DB *sql.DB

	Places   kindergartens.PlaceSearcher
	Uploader kindergartens.Uploader

	MetricsEnabled bool
}

func New(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if opts.MetricsEnabled {
		r.Use(metrics.Middleware)
	}
	r.Use(middleware.AuthContext(opts.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	var (
		usersRepo         users.Repository
		kindergartensRepo kindergartens.Repository
		customersRepo     customers.Repository
		ticketsRepo       tickets.Repository
		reservationsRepo  reservations.Repository
	)
	if opts.DB != nil {
		usersRepo = pg.NewUsersRepo(opts.DB)
		kindergartensRepo = pg.NewKindergartensRepo(opts.DB)
		customersRepo = pg.NewCustomersRepo(opts.DB)
		ticketsRepo = pg.NewTicketsRepo(opts.DB)
		reservationsRepo = pg.NewReservationsRepo(opts.DB)
	} else {
		tr := mem.NewTicketsRepo()
		usersRepo = mem.NewUsersRepo()
		kindergartensRepo = mem.NewKindergartensRepo()
		customersRepo = mem.NewCustomersRepo()
		ticketsRepo = tr
		reservationsRepo = mem.NewReservationsRepo(tr)
	}

	usersSvc := users.NewService(usersRepo)
	kindergartensSvc := kindergartens.NewService(kindergartensRepo, opts.Places, opts.Uploader)
	customersSvc := customers.NewService(customersRepo, kindergartensSvc)
	ticketsSvc := tickets.NewService(ticketsRepo, kindergartensSvc, customersSvc)
	reservationsSvc := reservations.NewService(reservationsRepo, kindergartensSvc, customersSvc, ticketsSvc)

	r.Route("/api/v1", func(api chi.Router) {
		if opts.Flow != nil && opts.Issuer != nil {
			users.RegisterAuthRoutes(api, usersSvc, opts.Flow, opts.Issuer, log)
		}
		kindergartens.RegisterRoutes(api, kindergartensSvc, log, func(tenant chi.Router) {
			customers.RegisterRoutes(tenant, customersSvc, ticketsSvc, log)
			tickets.RegisterRoutes(tenant, ticketsSvc, log)
			reservations.RegisterRoutes(tenant, reservationsSvc, log)
		})
	})

	return r
}
