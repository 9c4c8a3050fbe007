package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"auth-service/internal/domain"
	"auth-service/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("user account is not active")
	ErrOldPasswordWrong   = errors.New("old password is incorrect")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

// UserService coordina registro, login y cambio de contrasena.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	hasher SecretHasher
	policy *PasswordPolicy
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, hasher SecretHasher, policy *PasswordPolicy) *UserService {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	if policy == nil {
		policy = NewPasswordPolicy(0)
	}
	return &UserService{
		logger: logger,
		users:  users,
		hasher: hasher,
		policy: policy,
	}
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
}

// Register crea la cuenta inactiva; el OTP de verificacion lo emite el
// caller a continuacion. Email duplicado devuelve repository.ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return domain.User{}, ErrInvalidRole
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     emailAddr,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      role,
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.policy.Validate(input.Password, &user); err != nil {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login autentica por email y contrasena. El mismo error generico cubre
// email desconocido y contrasena incorrecta.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" || !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// El login no se cae por no poder registrar el timestamp.
		if s.logger != nil {
			s.logger.Warn("update last login failed", zap.Error(err), zap.String("user_id", user.ID))
		}
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

// ChangePassword cambia la contrasena de un usuario autenticado.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return ErrOldPasswordWrong
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.policy.Validate(newPassword, &user); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// GetByID devuelve el usuario o ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByEmail devuelve el usuario o ErrUserNotFound.
func (s *UserService) GetByEmail(ctx context.Context, emailAddr string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// List devuelve todas las cuentas; solo lo exponen endpoints con rol
// administrativo.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Deactivate marca la cuenta como inactiva; nunca borramos usuarios desde
// los flujos de negocio.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	err := s.users.Deactivate(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
