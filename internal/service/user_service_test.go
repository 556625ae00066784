package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"railroad-api/internal/access"
	"railroad-api/internal/model"
	"railroad-api/internal/repository/memrepo"
	"railroad-api/internal/token"
	"railroad-api/pkg/apierror"
)

func newUserService(t *testing.T) (*UserService, *memrepo.Store, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec("service-test-secret", 30*time.Minute)
	require.NoError(t, err)

	store := memrepo.New()
	return NewUserService(store.Users(), codec, bcrypt.MinCost, nil), store, codec
}

func register(t *testing.T, svc *UserService, pseudo string, email string) model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), model.RegisterRequest{Pseudo: pseudo, Email: email, Password: "hunter22"})
	require.NoError(t, err)
	return user
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, field, apiErr.Details)
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates a user with role user and a hashed password", func(t *testing.T) {
		svc, _, _ := newUserService(t)

		user := register(t, svc, " alice ", " Alice@Example.com ")

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "alice", user.Pseudo)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, access.RoleUser, user.Role)
		assert.NotEqual(t, "hunter22", user.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	})

	t.Run("duplicate email leaves a single record", func(t *testing.T) {
		svc, store, _ := newUserService(t)
		register(t, svc, "alice", "alice@example.com")

		_, err := svc.Register(context.Background(), model.RegisterRequest{Pseudo: "other", Email: "ALICE@example.com", Password: "pw"})
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)

		users, err := store.Users().List(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("duplicate pseudo is rejected", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		register(t, svc, "alice", "alice@example.com")

		_, err := svc.Register(context.Background(), model.RegisterRequest{Pseudo: "Alice", Email: "b@example.com", Password: "pw"})
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("blank fields are validation errors", func(t *testing.T) {
		svc, _, _ := newUserService(t)

		_, err := svc.Register(context.Background(), model.RegisterRequest{Pseudo: "  ", Email: "a@b.c", Password: "pw"})
		requireValidation(t, err, "pseudo")

		_, err = svc.Register(context.Background(), model.RegisterRequest{Pseudo: "a", Email: "a@b.c", Password: strings.Repeat("x", 73)})
		requireValidation(t, err, "password")
	})
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	svc, _, codec := newUserService(t)
	user := register(t, svc, "bob", "bob@example.com")

	t.Run("issues a token for the stored role", func(t *testing.T) {
		data, err := svc.Login(context.Background(), model.LoginRequest{Email: "BOB@example.com", Password: "hunter22"})
		require.NoError(t, err)

		assert.Equal(t, "Bearer", data.TokenType)
		assert.Equal(t, int64(1800), data.ExpiresIn)
		assert.Equal(t, user.ID, data.User.ID)

		claims, err := codec.Verify(data.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.SubjectID)
		assert.Equal(t, access.RoleUser, claims.Role)
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		_, err := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)

		_, err = svc.Login(context.Background(), model.LoginRequest{Email: "bob@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		user := register(t, svc, "carol", "carol@example.com")

		pseudo := "caroline"
		updated, err := svc.Update(context.Background(), user.ID, model.UpdateUserRequest{Pseudo: &pseudo})
		require.NoError(t, err)

		assert.Equal(t, "caroline", updated.Pseudo)
		assert.Equal(t, "carol@example.com", updated.Email)
		assert.Equal(t, user.PasswordHash, updated.PasswordHash)
	})

	t.Run("password change rehashes", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		user := register(t, svc, "dan", "dan@example.com")

		password := "n3w-secret"
		_, err := svc.Update(context.Background(), user.ID, model.UpdateUserRequest{Password: &password})
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), model.LoginRequest{Email: "dan@example.com", Password: password})
		require.NoError(t, err)
	})

	t.Run("taking another user's email is a duplicate", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		register(t, svc, "erin", "erin@example.com")
		frank := register(t, svc, "frank", "frank@example.com")

		email := "Erin@example.com"
		_, err := svc.Update(context.Background(), frank.ID, model.UpdateUserRequest{Email: &email})
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		_, err := svc.Update(context.Background(), "missing", model.UpdateUserRequest{})
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})
}

func TestUserService_ChangeRole(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserService(t)
	user := register(t, svc, "gina", "gina@example.com")

	updated, err := svc.ChangeRole(context.Background(), user.ID, access.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, access.RoleEmployee, updated.Role)

	stored, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleEmployee, stored.Role)

	_, err = svc.ChangeRole(context.Background(), user.ID, access.RoleUnknown)
	requireValidation(t, err, "role")
}

func TestUserService_DeleteCascadesTickets(t *testing.T) {
	t.Parallel()

	svc, store, _ := newUserService(t)
	user := register(t, svc, "hal", "hal@example.com")

	station := model.Station{ID: "s1", Name: "North"}
	require.NoError(t, store.Stations().Create(context.Background(), station))
	require.NoError(t, store.Trains().Create(context.Background(), model.Train{ID: "t1", Name: "Express", StartStation: "s1", EndStation: "s1"}))
	require.NoError(t, store.Tickets().Create(context.Background(), model.Ticket{ID: "k1", TrainID: "t1", UserID: user.ID}))

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err := store.Tickets().FindByID(context.Background(), "k1")
	require.ErrorIs(t, err, model.ErrTicketNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), model.ErrUserNotFound)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	t.Parallel()

	t.Run("creates the admin once", func(t *testing.T) {
		svc, store, _ := newUserService(t)

		require.NoError(t, svc.EnsureAdmin(context.Background(), "root@example.com", "rootpw", "root"))
		require.NoError(t, svc.EnsureAdmin(context.Background(), "root@example.com", "other", "root"))

		users, err := store.Users().List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, access.RoleAdmin, users[0].Role)

		_, err = svc.Login(context.Background(), model.LoginRequest{Email: "root@example.com", Password: "rootpw"})
		require.NoError(t, err)
	})

	t.Run("promotes an existing account", func(t *testing.T) {
		svc, _, _ := newUserService(t)
		user := register(t, svc, "ivy", "ivy@example.com")

		require.NoError(t, svc.EnsureAdmin(context.Background(), "ivy@example.com", "ignored", "ivy"))

		stored, err := svc.Get(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, access.RoleAdmin, stored.Role)
	})
}
