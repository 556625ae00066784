package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"railroad-api/internal/access"
	"railroad-api/internal/model"
	"railroad-api/internal/token"
)

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(raw string) (token.Claims, error) {
	args := m.Called(raw)
	return args.Get(0).(token.Claims), args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) AuthFailure(reason string) {
	m.Called(reason)
}

const userID = "5f0e8a52-4d7d-4c1c-9d47-1d2a3b4c5d6e"

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *model.APIError {
	t.Helper()
	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.NotNil(t, body.Error)
	return body.Error
}

func TestRequireAuth_AttachesStoredRole(t *testing.T) {
	verifier := &mockVerifier{}
	users := &mockUsers{}
	verifier.On("Verify", "good").Return(token.Claims{SubjectID: userID, Role: access.RoleUser}, nil)
	// role changed after the token was issued
	users.On("FindByID", mock.Anything, userID).Return(model.User{ID: userID, Role: access.RoleEmployee}, nil)

	m := NewAuthMiddleware(verifier, users, nil)

	var got access.Identity
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := access.IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/", nil)
	req.Header.Set("Authorization", "bEaReR   good ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, access.Identity{ID: userID, Role: access.RoleEmployee}, got)
	verifier.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestRequireAuth_Failures(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		setup      func(v *mockVerifier, u *mockUsers)
		reason     string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no header",
			reason:     "missing_token",
			wantStatus: http.StatusForbidden,
			wantCode:   "LOGIN_REQUIRED",
		},
		{
			name:       "other scheme",
			header:     "Basic dXNlcjpwYXNz",
			reason:     "missing_token",
			wantStatus: http.StatusForbidden,
			wantCode:   "LOGIN_REQUIRED",
		},
		{
			name:       "empty bearer",
			header:     "Bearer    ",
			reason:     "missing_token",
			wantStatus: http.StatusForbidden,
			wantCode:   "LOGIN_REQUIRED",
		},
		{
			name:   "expired token",
			header: "Bearer stale",
			setup: func(v *mockVerifier, _ *mockUsers) {
				v.On("Verify", "stale").Return(token.Claims{}, token.ErrExpired)
			},
			reason:     "expired",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name:   "foreign signature",
			header: "Bearer forged",
			setup: func(v *mockVerifier, _ *mockUsers) {
				v.On("Verify", "forged").Return(token.Claims{}, token.ErrBadSignature)
			},
			reason:     "bad_signature",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_TOKEN",
		},
		{
			name:   "deleted subject",
			header: "Bearer orphan",
			setup: func(v *mockVerifier, u *mockUsers) {
				v.On("Verify", "orphan").Return(token.Claims{SubjectID: userID, Role: access.RoleAdmin}, nil)
				u.On("FindByID", mock.Anything, userID).Return(model.User{}, model.ErrUserNotFound)
			},
			reason:     "subject_not_found",
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockVerifier{}
			users := &mockUsers{}
			recorder := &mockRecorder{}
			if tt.setup != nil {
				tt.setup(verifier, users)
			}
			recorder.On("AuthFailure", tt.reason).Once()

			handler := NewAuthMiddleware(verifier, users, recorder).RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/user/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			recorder.AssertExpectations(t)
			verifier.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestRequireAuth_MissingTokenNeverTouchesStore(t *testing.T) {
	verifier := &mockVerifier{}
	users := &mockUsers{}

	m := NewAuthMiddleware(verifier, users, nil)
	handler := m.RequireAuth(m.Authorize(access.UserChangeRole, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/user/"+userID+"/role", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	verifier.AssertNotCalled(t, "Verify", mock.Anything)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestRequireAuth_StoreErrorIsInternal(t *testing.T) {
	verifier := &mockVerifier{}
	users := &mockUsers{}
	verifier.On("Verify", "tok").Return(token.Claims{SubjectID: userID, Role: access.RoleUser}, nil)
	users.On("FindByID", mock.Anything, userID).Return(model.User{}, errors.New("connection reset"))

	handler := NewAuthMiddleware(verifier, users, nil).RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestAuthenticate_RealCodecRejectsForeignSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ours, err := token.NewCodec("ours", time.Hour, token.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	theirs, err := token.NewCodec("theirs", time.Hour, token.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	forged, err := theirs.Issue(userID, access.RoleAdmin)
	require.NoError(t, err)

	users := &mockUsers{}
	m := NewAuthMiddleware(ours, users, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	_, err = m.Authenticate(req)

	assert.ErrorIs(t, err, ErrInvalidToken)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func withIdentity(r *http.Request, identity access.Identity) *http.Request {
	return r.WithContext(access.WithIdentity(r.Context(), identity))
}

func TestAuthorize_RoleAndSelfAccess(t *testing.T) {
	recorder := &mockRecorder{}
	recorder.On("AuthFailure", "forbidden")
	m := NewAuthMiddleware(&mockVerifier{}, &mockUsers{}, recorder)

	router := chi.NewRouter()
	router.With(m.Authorize(access.UserUpdate, OwnerFromURLParam("id"))).Put("/user/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.With(m.Authorize(access.UserList, nil)).Get("/user/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	other := "0c8a0f33-1111-4222-8333-944455556666"
	tests := []struct {
		name     string
		method   string
		path     string
		identity access.Identity
		want     int
	}{
		{"self update", http.MethodPut, "/user/" + userID, access.Identity{ID: userID, Role: access.RoleUser}, http.StatusOK},
		{"other update as user", http.MethodPut, "/user/" + other, access.Identity{ID: userID, Role: access.RoleUser}, http.StatusForbidden},
		{"other update as employee", http.MethodPut, "/user/" + other, access.Identity{ID: userID, Role: access.RoleEmployee}, http.StatusForbidden},
		{"other update as admin", http.MethodPut, "/user/" + other, access.Identity{ID: userID, Role: access.RoleAdmin}, http.StatusOK},
		{"list as user", http.MethodGet, "/user/", access.Identity{ID: userID, Role: access.RoleUser}, http.StatusForbidden},
		{"list as employee", http.MethodGet, "/user/", access.Identity{ID: userID, Role: access.RoleEmployee}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, withIdentity(httptest.NewRequest(tt.method, tt.path, nil), tt.identity))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
			}
		})
	}
}

func TestAuthorize_WithoutIdentity(t *testing.T) {
	m := NewAuthMiddleware(&mockVerifier{}, &mockUsers{}, nil)
	handler := m.Authorize(access.TicketBook, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ticket/x/booking", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "LOGIN_REQUIRED", decodeError(t, rec).Code)
}
