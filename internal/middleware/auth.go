package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"railroad-api/internal/access"
	"railroad-api/internal/model"
	"railroad-api/internal/token"
)

var (
	ErrMissingToken    = errors.New("missing bearer token")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSubjectNotFound = errors.New("token subject not found")
)

type tokenVerifier interface {
	Verify(raw string) (token.Claims, error)
}

type identityResolver interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type failureRecorder interface {
	AuthFailure(reason string)
}

type noopRecorder struct{}

func (noopRecorder) AuthFailure(string) {}

type AuthMiddleware struct {
	tokens   tokenVerifier
	users    identityResolver
	failures failureRecorder
}

func NewAuthMiddleware(tokens tokenVerifier, users identityResolver, failures failureRecorder) *AuthMiddleware {
	if failures == nil {
		failures = noopRecorder{}
	}
	return &AuthMiddleware{tokens: tokens, users: users, failures: failures}
}

// Authenticate resolves the caller of r. The returned role is the one stored
// for the subject, not the one embedded in the token.
func (m *AuthMiddleware) Authenticate(r *http.Request) (access.Identity, error) {
	raw, ok := bearerToken(r)
	if !ok {
		m.reject(r, "missing_token", nil)
		return access.Identity{}, ErrMissingToken
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		m.reject(r, token.Reason(err), err)
		return access.Identity{}, ErrInvalidToken
	}

	user, err := m.users.FindByID(r.Context(), claims.SubjectID)
	if errors.Is(err, model.ErrUserNotFound) {
		m.reject(r, "subject_not_found", err)
		return access.Identity{}, ErrSubjectNotFound
	}
	if err != nil {
		return access.Identity{}, err
	}

	if user.Role != claims.Role {
		slog.Debug("token role is stale", "user_id", user.ID, "token_role", claims.Role.String(), "stored_role", user.Role.String())
	}

	return access.Identity{ID: user.ID, Role: user.Role}, nil
}

func (m *AuthMiddleware) reject(r *http.Request, reason string, err error) {
	m.failures.AuthFailure(reason)
	attrs := []any{"reason", reason, "method", r.Method, "path", r.URL.Path}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	slog.Warn("authentication rejected", attrs...)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(header[7:])
	return raw, raw != ""
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Authenticate(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := access.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFunc extracts the id of the user owning the targeted resource.
// An empty result means the resource has no owner.
type OwnerFunc func(r *http.Request) string

// OwnerFromURLParam treats a chi URL parameter as the owning user id,
// canonicalized when it parses as a UUID.
func OwnerFromURLParam(name string) OwnerFunc {
	return func(r *http.Request) string {
		raw := chi.URLParam(r, name)
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
		return raw
	}
}

// Authorize must run after RequireAuth. owner may be nil for rules without
// self-access.
func (m *AuthMiddleware) Authorize(rule access.Rule, owner OwnerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := access.IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, ErrMissingToken)
				return
			}

			ownerID := ""
			if owner != nil {
				ownerID = owner(r)
			}

			if access.Authorize(identity, rule, ownerID) != access.Allow {
				m.failures.AuthFailure("forbidden")
				slog.Warn("authorization denied", "user_id", identity.ID, "role", identity.Role.String(), "method", r.Method, "path", r.URL.Path)
				writeAuthError(w, model.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"}

	switch {
	case errors.Is(err, ErrMissingToken):
		status = http.StatusForbidden
		body.Code = "LOGIN_REQUIRED"
		body.Message = "please log in"
	case errors.Is(err, ErrInvalidToken):
		status = http.StatusUnauthorized
		body.Code = "INVALID_TOKEN"
		body.Message = "invalid or expired token"
	case errors.Is(err, ErrSubjectNotFound):
		status = http.StatusNotFound
		body.Code = "USER_NOT_FOUND"
		body.Message = "user not found"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "insufficient permissions"
	default:
		slog.Error("authentication failed", "error", err.Error())
	}

	writeJSON(w, status, model.APIResponse{Success: false, Error: body})
}
