package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"auth-service/internal/domain"
	"auth-service/internal/email"
	"auth-service/internal/repository"
)

var (
	ErrOTPInvalid = errors.New("invalid otp code")
	ErrOTPExpired = errors.New("otp code has expired")
)

const defaultOTPExpiry = 10 * time.Minute

// OTPService emite y verifica codigos de verificacion de email.
type OTPService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	otps    repository.OTPRepository
	sender  email.Sender
	limiter OTPRateLimiter
	expiry  time.Duration
	nowFn   func() time.Time
}

func NewOTPService(logger *zap.Logger, users repository.UserRepository, otps repository.OTPRepository, sender email.Sender, limiter OTPRateLimiter, expiry time.Duration) *OTPService {
	if expiry <= 0 {
		expiry = defaultOTPExpiry
	}
	return &OTPService{
		logger:  logger,
		users:   users,
		otps:    otps,
		sender:  sender,
		limiter: limiter,
		expiry:  expiry,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue genera un codigo nuevo para el usuario, invalidando en la misma
// transaccion cualquier OTP anterior sin usar, y despacha el correo. El
// codigo nunca se devuelve al caller.
func (s *OTPService) Issue(ctx context.Context, user domain.User) error {
	if s.limiter != nil && !s.limiter.Allow(user.Email) {
		return ErrRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	otp := domain.EmailOTP{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Code:      code,
		CreatedAt: s.nowFn(),
	}
	if err := s.otps.Replace(ctx, otp); err != nil {
		return err
	}

	if s.sender == nil {
		return ErrEmailSendFailure
	}
	expiresAt := otp.CreatedAt.Add(s.expiry)
	if err := s.sender.SendVerificationOTP(ctx, user.Email, code, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", user.Email))
		}
		return ErrEmailSendFailure
	}
	return nil
}

// Verify consume el OTP y activa la cuenta. Ningun camino de error
// consume el codigo ni activa al usuario; un codigo ya usado se reporta
// como invalido, igual que uno inexistente.
func (s *OTPService) Verify(ctx context.Context, emailAddr, code string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrOTPInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	otp, err := s.otps.LatestUnused(ctx, user.ID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrOTPInvalid
		}
		return domain.User{}, err
	}
	if otp.Expired(s.expiry, s.nowFn()) {
		return domain.User{}, ErrOTPExpired
	}

	if err := s.otps.Consume(ctx, otp.ID, user.ID); err != nil {
		// Otro verify concurrente gano la carrera sobre el flag used.
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrOTPInvalid
		}
		return domain.User{}, err
	}

	user.IsActive = true
	return user, nil
}

// generateOTPCode devuelve un codigo de 6 digitos con distribucion
// uniforme sobre 000000-999999, ceros a la izquierda incluidos.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
