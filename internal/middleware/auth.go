package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"pod-tracker/internal/models"
)

// UserStore records the users that authenticate.
// Implemented by [db.Store].
type UserStore interface {
	UpsertUser(ctx context.Context, id int64, username string) (*models.User, error)
}

// Auth validates Telegram Mini App initData and puts the caller in the
// request context.
type Auth struct {
	botToken string
	users    UserStore
	log      *log.Logger
}

// NewAuth creates an Auth checking signatures against botToken.
func NewAuth(botToken string, users UserStore, logger *log.Logger) *Auth {
	return &Auth{botToken: botToken, users: users, log: logger}
}

// Middleware rejects requests without a valid "tma <initData>" header.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "tma" {
			http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
			return
		}
		raw := parts[1]

		if a.botToken == "" {
			a.log.Error("TELEGRAM_BOT_TOKEN is not set")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := initdata.Validate(raw, a.botToken, 0); err != nil {
			a.log.Warn("invalid init data", "err", err)
			http.Error(w, "Invalid init data", http.StatusUnauthorized)
			return
		}

		data, err := initdata.Parse(raw)
		if err != nil {
			a.log.Warn("error parsing init data", "err", err)
			http.Error(w, "Error parsing init data", http.StatusBadRequest)
			return
		}

		user, err := a.users.UpsertUser(r.Context(), data.User.ID, data.User.Username)
		if err != nil {
			a.log.Error("failed to upsert user", "user", data.User.ID, "err", err)
			http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, models.UserContextKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(models.UserContextKey).(*models.User)
	return user, ok && user != nil
}
