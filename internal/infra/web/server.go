package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"content-commerce/internal/infra/api"
	"content-commerce/internal/usecase"
)

// SignatureVerifier authenticates processor webhooks.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker func(r *http.Request) error

type Deps struct {
	Users         usecase.UserUseCase
	Subscriptions usecase.SubscriptionUseCase
	Checkout      usecase.CheckoutUseCase
	Verify        usecase.VerificationUseCase
	Purchases     usecase.PurchaseUseCase
	Access        usecase.AccessUseCase
	Donations     usecase.DonationUseCase
	Admin         usecase.AdminUseCase

	Auth        *AuthManager
	Webhook     SignatureVerifier // nil disables the webhook route
	FrontendURL string
	Timeout     time.Duration
	Health      map[string]HealthChecker
	Log         *zerolog.Logger
}

type Server struct {
	users    usecase.UserUseCase
	subs     usecase.SubscriptionUseCase
	checkout usecase.CheckoutUseCase
	verify   usecase.VerificationUseCase
	library  usecase.PurchaseUseCase
	access   usecase.AccessUseCase
	dons     usecase.DonationUseCase
	admin    usecase.AdminUseCase

	auth        *AuthManager
	webhook     SignatureVerifier
	frontendURL string
	timeout     time.Duration
	health      map[string]HealthChecker
	now         func() time.Time
	log         *zerolog.Logger
}

func NewServer(d Deps) *Server {
	if d.Auth == nil {
		d.Auth = NewAuthManager("", "", false, 0)
	}
	if d.Log == nil {
		nop := zerolog.Nop()
		d.Log = &nop
	}
	return &Server{
		users:       d.Users,
		subs:        d.Subscriptions,
		checkout:    d.Checkout,
		verify:      d.Verify,
		library:     d.Purchases,
		access:      d.Access,
		dons:        d.Donations,
		admin:       d.Admin,
		auth:        d.Auth,
		webhook:     d.Webhook,
		frontendURL: d.FrontendURL,
		timeout:     d.Timeout,
		health:      d.Health,
		now:         time.Now,
		log:         d.Log,
	}
}

// Routes builds the full HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		api.TraceID(),
		api.RequestLog(s.log),
		api.Recover(s.log),
		api.Timeout(s.timeout),
		Identity,
	)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public or optionally authenticated.
		r.Get("/ebooks/{id}/access", s.handleResolveAccess)
		r.Post("/donations/initialize", s.handleInitializeDonation)
		r.Post("/donations/verify", s.handleVerify)
		r.Get("/donations/feed", s.handleDonationFeed)
		r.Get("/donations/stats", s.handleDonationStats)
		r.Post("/payments/verify", s.handleVerify)
		r.Get("/payments/callback", s.handleCallback)
		r.Post("/payments/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/users/sync", s.handleSyncUser)

			r.Get("/subscriptions/me", s.handleGetSubscription)
			r.Post("/subscriptions/initialize", s.handleInitializeSubscription)
			r.Post("/subscriptions/verify", s.handleVerify)
			r.Post("/subscriptions/cancel", s.handleCancelSubscription)
			r.Post("/subscriptions/use-credits", s.handleUseCredits)

			r.Post("/purchases/initialize", s.handleInitializePurchase)
			r.Post("/purchases/verify", s.handleVerify)
			r.Get("/purchases/history", s.handlePurchaseHistory)
			r.Get("/purchases/{id}/download", s.handleDownload)

			r.Get("/ebooks/mine", s.handleMyEbooks)
			r.Get("/ebooks/{id}/ownership", s.handleOwnership)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.Post("/logout", s.handleAdminLogout)
			r.Group(func(r chi.Router) {
				r.Use(s.RequireAdmin, adminMetrics)
				r.Get("/stats", s.handleAdminStats)
				r.Get("/purchases", s.handleAdminPurchases)
				r.Post("/purchases/{id}/refund", s.handleAdminRefund)
				r.Get("/subscriptions", s.handleAdminSubscriptions)
				r.Get("/donations", s.handleAdminDonations)
				r.Get("/ebooks", s.handleAdminEbooks)
				r.Get("/users", s.handleAdminUsers)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.health))
	status := http.StatusOK
	for name, check := range s.health {
		if err := check(r); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
