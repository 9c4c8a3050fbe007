package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"auth-service/internal/domain"
	"auth-service/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usersByEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.usersByEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]domain.User, 0, len(m.usersByID))
	for _, u := range m.usersByID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastLogin = &at
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsActive = false
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(m.usersByEmail, user.Email)
	delete(m.usersByID, id)
	return nil
}

func (m *mockUserRepo) activate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return
	}
	user.IsActive = true
	m.usersByID[id] = user
}

func (m *mockUserRepo) setPassword(id, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return
	}
	user.PasswordHash = hash
	m.usersByID[id] = user
}

type mockOTPRepo struct {
	mu    sync.Mutex
	users *mockUserRepo
	otps  []domain.EmailOTP
}

func newMockOTPRepo(users *mockUserRepo) *mockOTPRepo {
	return &mockOTPRepo{users: users}
}

func (m *mockOTPRepo) Replace(_ context.Context, otp domain.EmailOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.otps {
		if m.otps[i].UserID == otp.UserID && !m.otps[i].Used {
			m.otps[i].Used = true
		}
	}
	m.otps = append(m.otps, otp)
	return nil
}

func (m *mockOTPRepo) LatestUnused(_ context.Context, userID, code string) (domain.EmailOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *domain.EmailOTP
	for i := range m.otps {
		o := &m.otps[i]
		if o.UserID != userID || o.Code != code || o.Used {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) {
			found = o
		}
	}
	if found == nil {
		return domain.EmailOTP{}, pgx.ErrNoRows
	}
	return *found, nil
}

func (m *mockOTPRepo) Consume(_ context.Context, otpID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.otps {
		if m.otps[i].ID == otpID {
			if m.otps[i].Used {
				return pgx.ErrNoRows
			}
			m.otps[i].Used = true
			m.users.activate(userID)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockOTPRepo) unusedCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, o := range m.otps {
		if o.UserID == userID && !o.Used {
			count++
		}
	}
	return count
}

type mockResetTokenRepo struct {
	mu     sync.Mutex
	users  *mockUserRepo
	tokens []domain.PasswordResetToken
}

func newMockResetTokenRepo(users *mockUserRepo) *mockResetTokenRepo {
	return &mockResetTokenRepo{users: users}
}

func (m *mockResetTokenRepo) Replace(_ context.Context, token domain.PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].UserID == token.UserID && !m.tokens[i].Used {
			m.tokens[i].Used = true
		}
	}
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *mockResetTokenRepo) ListUnused(_ context.Context) ([]domain.PasswordResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var unused []domain.PasswordResetToken
	for _, t := range m.tokens {
		if !t.Used {
			unused = append(unused, t)
		}
	}
	return unused, nil
}

func (m *mockResetTokenRepo) Consume(_ context.Context, tokenID, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].ID == tokenID {
			if m.tokens[i].Used {
				return pgx.ErrNoRows
			}
			m.tokens[i].Used = true
			m.users.setPassword(userID, passwordHash)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockResetTokenRepo) unusedCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Used {
			count++
		}
	}
	return count
}

var errSendFailed = errors.New("send failed")

type captureSender struct {
	mu    sync.Mutex
	codes []string
	urls  []string
	fail  bool
}

func (s *captureSender) SendVerificationOTP(_ context.Context, _ string, code string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendFailed
	}
	s.codes = append(s.codes, code)
	return nil
}

func (s *captureSender) SendPasswordReset(_ context.Context, _ string, resetURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendFailed
	}
	s.urls = append(s.urls, resetURL)
	return nil
}

func (s *captureSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

func (s *captureSender) lastURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.urls) == 0 {
		return ""
	}
	return s.urls[len(s.urls)-1]
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
