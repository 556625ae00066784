//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"railroad-api/internal/access"
	"railroad-api/internal/config"
	"railroad-api/internal/database"
	"railroad-api/internal/handler"
	"railroad-api/internal/metrics"
	"railroad-api/internal/middleware"
	"railroad-api/internal/model"
	"railroad-api/internal/repository"
	"railroad-api/internal/router"
	"railroad-api/internal/service"
	"railroad-api/internal/token"
)

const testSecret = "integration-secret"

type env struct {
	server *httptest.Server
	db     *database.DB
	users  *service.UserService
	codec  *token.Codec
}

// openDB connects to TEST_DATABASE_URL and empties every table. Tests in this
// package share one database and must not run in parallel.
func openDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{URL: url, MaxConns: 4, MinConns: 0})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE tickets, trains, stations, users`)
	require.NoError(t, err)

	return db
}

func newEnv(t *testing.T, cfg *config.Config) *env {
	t.Helper()

	db := openDB(t)
	codec, err := token.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	if cfg == nil {
		cfg = &config.Config{
			RequestTimeout:   10 * time.Second,
			RateLimitRPM:     1000,
			AuthRateLimitRPM: 1000,
			CORSOrigins:      []string{"*"},
		}
	}

	userRepo := repository.NewUserRepository(db.Pool)
	stationRepo := repository.NewStationRepository(db.Pool)
	trainRepo := repository.NewTrainRepository(db.Pool)
	ticketRepo := repository.NewTicketRepository(db.Pool)

	m := metrics.New()
	users := service.NewUserService(userRepo, codec, bcrypt.MinCost, nil)
	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(codec, userRepo, m), router.Handlers{
		Health:  handler.NewHealthHandler(db),
		User:    handler.NewUserHandler(users),
		Station: handler.NewStationHandler(service.NewStationService(stationRepo, nil)),
		Train:   handler.NewTrainHandler(service.NewTrainService(trainRepo, stationRepo, nil)),
		Ticket:  handler.NewTicketHandler(service.NewTicketService(ticketRepo, trainRepo, nil)),
	}, m))
	t.Cleanup(server.Close)

	return &env{server: server, db: db, users: users, codec: codec}
}

func (e *env) account(t *testing.T, name string, role access.Role) (model.User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := e.users.Register(ctx, model.RegisterRequest{Pseudo: name, Email: name + "@rail.test", Password: "pw-" + name})
	require.NoError(t, err)
	if role != access.RoleUser {
		user, err = e.users.ChangeRole(ctx, user.ID, role)
		require.NoError(t, err)
	}

	signed, err := e.codec.Issue(user.ID, user.Role)
	require.NoError(t, err)
	return user, signed
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func (e *env) do(t *testing.T, method string, path string, bearer string, body any) (*http.Response, envelope) {
	t.Helper()

	payload := []byte{}
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = raw
	}

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	}
	return resp, parsed
}

func decodeData[T any](t *testing.T, parsed envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(parsed.Data, &out))
	return out
}
