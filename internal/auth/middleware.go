package auth

import (
	"context"
	"fmt"
	"net/http"

	"ms-storefront/internal/apperr"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves bearer tokens to stored users.
type Authenticator struct {
	Verifier    TokenVerifier
	Users       UserStore
	OwnerOpenID string
	Logger      *logger.Logger
}

func NewAuthenticator(v TokenVerifier, users UserStore, ownerOpenID string, log *logger.Logger) *Authenticator {
	return &Authenticator{Verifier: v, Users: users, OwnerOpenID: ownerOpenID, Logger: log}
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return nil, apperr.Unauthorized("Please login")
	}
	claims, err := a.Verifier.Verify(r.Context(), raw)
	if err != nil {
		a.Logger.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		return nil, apperr.Unauthorized("Please login")
	}

	u := &models.User{
		OpenID:      claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		LoginMethod: claims.LoginMethod,
		Role:        models.RoleUser,
	}
	if a.OwnerOpenID != "" && claims.Subject == a.OwnerOpenID {
		u.Role = models.RoleAdmin
	}
	stored, err := a.Users.Upsert(r.Context(), u)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Middleware rejects requests without a valid session.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// Optional attaches the user when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := a.authenticate(r)
		if err != nil {
			a.Logger.Debug("AUTH", fmt.Sprintf("Continuing anonymously: %v", err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireUser rejects anonymous requests. It must run after Middleware or
// Optional.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			utils.WriteError(w, apperr.Unauthorized("Please login"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Middleware or Optional.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			utils.WriteError(w, apperr.Unauthorized("Please login"))
			return
		}
		if !u.IsAdmin() {
			utils.WriteError(w, apperr.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the signed-in user or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// UserID returns the signed-in user's id, or nil for anonymous requests.
func UserID(ctx context.Context) *int64 {
	if u := UserFromContext(ctx); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// Me handles GET /api/auth/me. Anonymous callers get a null user.
func Me(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, "", UserFromContext(r.Context()))
}
