package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Deps struct {
	Log       zerolog.Logger
	Tokens    *auth.Maker
	Accounts  Accounts
	Catalog   Catalog
	Orders    Orders
	Reviews   Reviews
	Carts     Carts
	Coupons   Coupons
	Dashboard Dashboard

	// Limiter applies to all of /api, AdminLimiter additionally to /api/admin. Nil disables.
	Limiter      ratelimit.Limiter
	AdminLimiter ratelimit.Limiter

	// UploadDir is served at /uploads when set.
	UploadDir string
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	h := &handlers{Deps: d}
	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(RateLimit(d.Limiter))
		}
		r.Use(Authenticate(d.Tokens, d.Accounts))

		r.Route("/auth", h.authRoutes)
		r.Route("/products", h.productRoutes)
		r.Route("/categories", h.categoryRoutes)
		r.Route("/orders", h.orderRoutes)
		r.Route("/reviews", h.reviewRoutes)
		r.Route("/cart", h.cartRoutes)
		r.Route("/admin", func(r chi.Router) {
			if d.AdminLimiter != nil {
				r.Use(RateLimit(d.AdminLimiter))
			}
			r.Use(RequireAdmin)
			h.adminRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusNotFound, apperr.MsgRouteNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusMethodNotAllowed, apperr.MsgRouteNotFound, nil)
	})
	return r
}

type handlers struct {
	Deps
}
