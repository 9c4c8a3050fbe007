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
	"auth-service/internal/email"
	"auth-service/internal/repository"
)

var (
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
)

const defaultResetExpiry = 10 * time.Minute

// ResetService administra el flujo de olvido y reseteo de contrasena.
// Solo se persiste el hash del token; el token crudo viaja una unica vez
// dentro del link de reseteo.
type ResetService struct {
	logger          *zap.Logger
	users           repository.UserRepository
	tokens          repository.ResetTokenRepository
	hasher          SecretHasher
	policy          *PasswordPolicy
	sender          email.Sender
	frontendBaseURL string
	expiry          time.Duration
	nowFn           func() time.Time
}

func NewResetService(
	logger *zap.Logger,
	users repository.UserRepository,
	tokens repository.ResetTokenRepository,
	hasher SecretHasher,
	policy *PasswordPolicy,
	sender email.Sender,
	frontendBaseURL string,
	expiry time.Duration,
) *ResetService {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	if policy == nil {
		policy = NewPasswordPolicy(0)
	}
	if expiry <= 0 {
		expiry = defaultResetExpiry
	}
	return &ResetService{
		logger:          logger,
		users:           users,
		tokens:          tokens,
		hasher:          hasher,
		policy:          policy,
		sender:          sender,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		expiry:          expiry,
		nowFn:           func() time.Time { return time.Now().UTC() },
	}
}

// Request genera un token nuevo para el email dado, invalidando en la
// misma transaccion los anteriores sin usar, y despacha el link de
// reseteo. Email desconocido devuelve ErrUserNotFound.
func (s *ResetService) Request(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	// uuid4 en hex: 122 bits de azar, igual que el link que espera el
	// frontend.
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return err
	}

	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		CreatedAt: s.nowFn(),
	}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return err
	}

	if s.sender == nil {
		return ErrEmailSendFailure
	}
	resetURL := s.frontendBaseURL + "/reset-password/" + raw
	if err := s.sender.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		if s.logger != nil {
			s.logger.Warn("send password reset failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// Reset valida el token crudo contra los hashes vivos y, si todo esta en
// orden, fija la nueva contrasena y consume el token en una sola
// transaccion. Un token usado o vencido se rechaza aunque el hash
// coincida.
func (s *ResetService) Reset(ctx context.Context, rawToken, newPassword, confirmPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrResetTokenInvalid
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.policy.Validate(newPassword, nil); err != nil {
		return err
	}

	unused, err := s.tokens.ListUnused(ctx)
	if err != nil {
		return err
	}

	// El hash es salado, asi que no hay indice posible: se recorre la
	// lista de tokens vivos comparando uno a uno.
	var matched *domain.PasswordResetToken
	for i := range unused {
		if s.hasher.Verify(rawToken, unused[i].TokenHash) {
			matched = &unused[i]
			break
		}
	}
	if matched == nil {
		return ErrResetTokenInvalid
	}
	if matched.Expired(s.expiry, s.nowFn()) {
		return ErrResetTokenExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.tokens.Consume(ctx, matched.ID, matched.UserID, hash); err != nil {
		// Consumido por un reset concurrente entre el scan y el update.
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return err
	}
	return nil
}
