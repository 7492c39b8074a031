package httpx

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/apperr"
	"github.com/ariefcatur/go-giftshop/internal/auth"
	"github.com/ariefcatur/go-giftshop/internal/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger puts a request scoped logger into the context and logs each completed request.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(log.WithContext(r.Context()))

			next.ServeHTTP(ww, r)

			// Authenticate may have added user_id to the context logger
			l := zerolog.Ctx(r.Context())
			ev := l.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = l.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

// Recoverer turns panics into the generic 500 envelope.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			fail(w, http.StatusInternalServerError, apperr.MsgInternal, nil)
		}()
		next.ServeHTTP(w, r)
	})
}

// Principals resolves the current role of a user so that role changes and
// deactivation take effect before the token expires.
type Principals interface {
	Principal(ctx context.Context, userID string) (string, error)
}

// Authenticate attaches claims for a valid bearer token. Requests without a token pass through
// as guests; an invalid token is rejected.
func Authenticate(tokens *auth.Maker, principals Principals) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, found := bearer(r)
			if !found {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				fail(w, http.StatusUnauthorized, apperr.MsgInvalidToken, nil)
				return
			}
			role, err := principals.Principal(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			claims.Role = role
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", claims.UserID)
			})
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			fail(w, http.StatusUnauthorized, apperr.MsgUnauthenticated, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := auth.FromContext(r.Context())
		switch {
		case c == nil:
			fail(w, http.StatusUnauthorized, apperr.MsgUnauthenticated, nil)
		case !c.IsAdmin():
			fail(w, http.StatusForbidden, apperr.MsgForbidden, nil)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimit counts requests per client IP. Limiter failures let the request through.
func RateLimit(l ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retry, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
				fail(w, http.StatusTooManyRequests, apperr.MsgTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
