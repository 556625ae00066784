package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"railroad-api/internal/access"
	"railroad-api/internal/event"
	"railroad-api/internal/model"
	"railroad-api/pkg/apierror"
)

// bcrypt ignores input past this many bytes.
const maxPasswordBytes = 72

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmailOrPseudo(ctx context.Context, email string, pseudo string, exceptID string) (bool, error)
	Create(ctx context.Context, user model.User) error
	Update(ctx context.Context, user model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}

type tokenIssuer interface {
	Issue(subjectID string, role access.Role) (string, error)
	TTL() time.Duration
}

type UserService struct {
	users      userStore
	tokens     tokenIssuer
	bcryptCost int
	events     event.Publisher
	now        func() time.Time
}

func NewUserService(users userStore, tokens tokenIssuer, bcryptCost int, events event.Publisher) *UserService {
	return &UserService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		events:     events,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func validationError(field string, message string) error {
	return apierror.Validation(field, message)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPasswordInput(password string) error {
	if strings.TrimSpace(password) == "" {
		return validationError("password", "password is required")
	}
	if len(password) > maxPasswordBytes {
		return validationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

// Register creates an account with role user.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	pseudo := strings.TrimSpace(req.Pseudo)
	email := normalizeEmail(req.Email)
	if pseudo == "" {
		return model.User{}, validationError("pseudo", "pseudo is required")
	}
	if email == "" {
		return model.User{}, validationError("email", "email is required")
	}
	if err := checkPasswordInput(req.Password); err != nil {
		return model.User{}, err
	}

	taken, err := s.users.ExistsByEmailOrPseudo(ctx, email, pseudo, "")
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, model.ErrUserAlreadyExists
	}

	hash, err := hashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Pseudo:       pseudo,
		Email:        email,
		PasswordHash: hash,
		Role:         access.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.LoginData, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginData{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.LoginData{}, err
	}

	ok, err := checkPassword(user.PasswordHash, req.Password)
	if err != nil {
		return model.LoginData{}, err
	}
	if !ok {
		return model.LoginData{}, model.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return model.LoginData{}, fmt.Errorf("issue token: %w", err)
	}

	return model.LoginData{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      user,
	}, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id string, req model.UpdateUserRequest) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if req.Pseudo != nil {
		pseudo := strings.TrimSpace(*req.Pseudo)
		if pseudo == "" {
			return model.User{}, validationError("pseudo", "pseudo cannot be blank")
		}
		user.Pseudo = pseudo
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return model.User{}, validationError("email", "email cannot be blank")
		}
		user.Email = email
	}
	if req.Password != nil {
		if err := checkPasswordInput(*req.Password); err != nil {
			return model.User{}, err
		}
		hash, err := hashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}

	if req.Pseudo != nil || req.Email != nil {
		taken, err := s.users.ExistsByEmailOrPseudo(ctx, user.Email, user.Pseudo, user.ID)
		if err != nil {
			return model.User{}, err
		}
		if taken {
			return model.User{}, model.ErrUserAlreadyExists
		}
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Delete removes the account; its tickets go with it.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", id)
	return nil
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role access.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, apierror.Wrap(access.ErrInvalidRole, "VALIDATION_ERROR", access.ErrInvalidRole.Error(), "role", http.StatusBadRequest)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if user.Role == role {
		return user, nil
	}

	previous := user.Role
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, err
	}

	slog.Info("user role changed", "user_id", user.ID, "from", previous.String(), "to", role.String())
	publish(s.events, event.TypeRoleChanged, user.ID, map[string]any{"from": previous.String(), "to": role.String()})
	return user, nil
}

// EnsureAdmin creates the bootstrap admin, or promotes the account that
// already owns the email. It never resets an existing password.
func (s *UserService) EnsureAdmin(ctx context.Context, email string, password string, pseudo string) error {
	existing, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role == access.RoleAdmin {
			return nil
		}
		_, err = s.ChangeRole(ctx, existing.ID, access.RoleAdmin)
		return err
	case !errors.Is(err, model.ErrUserNotFound):
		return err
	}

	user, err := s.Register(ctx, model.RegisterRequest{Pseudo: pseudo, Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	if _, err := s.ChangeRole(ctx, user.ID, access.RoleAdmin); err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "user_id", user.ID)
	return nil
}
