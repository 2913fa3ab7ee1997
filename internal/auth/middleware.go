package auth

import (
	"net/http"
	"strings"

	"github.com/hackgods/studio-booking/pkg/logging"
)

// Config carries the admin identity explicitly. An empty AdminEmail leaves admin
// routes unusable.
type Config struct {
	AdminEmail string
}

func (c Config) IsAdmin(id Identity) bool {
	admin := strings.TrimSpace(c.AdminEmail)
	return admin != "" && strings.EqualFold(admin, id.Email)
}

// ErrorWriter renders an error response in the API's shape.
type ErrorWriter func(w http.ResponseWriter, status int, slug, details string)

type Middleware struct {
	verifier   *Verifier
	cfg        Config
	writeError ErrorWriter
	logger     *logging.Logger
}

func NewMiddleware(verifier *Verifier, cfg Config, writeError ErrorWriter, logger *logging.Logger) *Middleware {
	if logger == nil {
		logger = logging.Default()
	}
	return &Middleware{
		verifier:   verifier,
		cfg:        cfg,
		writeError: writeError,
		logger:     logger.Named("auth"),
	}
}

// RequireUser rejects requests without a valid session token with 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.verifier.Identify(BearerToken(r))
		if err != nil {
			m.logger.Debug("unauthenticated request", "path", r.URL.Path, "error", err)
			m.writeError(w, http.StatusUnauthorized, "unauthorized", "sign in to continue")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin allows only the configured admin email.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(m.cfg.AdminEmail) == "" {
			m.logger.Error("admin route requested but ADMIN_EMAIL is not set", "path", r.URL.Path)
			m.writeError(w, http.StatusInternalServerError, "admin_not_configured", "admin access is not configured")
			return
		}
		id, err := m.verifier.Identify(BearerToken(r))
		if err != nil {
			m.writeError(w, http.StatusUnauthorized, "unauthorized", "sign in to continue")
			return
		}
		if !m.cfg.IsAdmin(id) {
			m.logger.Warn("non-admin on admin route", "user_id", id.UserID, "path", r.URL.Path)
			m.writeError(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
