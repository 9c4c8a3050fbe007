package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type flakySender struct {
	mu        sync.Mutex
	failTimes int
	calls     int
	delivered []string
}

func (s *flakySender) SendVerificationOTP(_ context.Context, toEmail string, _ string, _ time.Time) error {
	return s.attempt(toEmail)
}

func (s *flakySender) SendPasswordReset(_ context.Context, toEmail string, _ string) error {
	return s.attempt(toEmail)
}

func (s *flakySender) attempt(toEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failTimes {
		return errors.New("smtp unavailable")
	}
	s.delivered = append(s.delivered, toEmail)
	return nil
}

func (s *flakySender) stats() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, len(s.delivered)
}

func TestAsyncSender_DeliversAfterRetries(t *testing.T) {
	inner := &flakySender{failTimes: 2}
	sender := newAsyncSender(inner, nil, 3, time.Millisecond)

	if err := sender.SendVerificationOTP(context.Background(), "alice@example.com", "123456", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("enqueue must not fail: %v", err)
	}
	sender.Close()

	calls, delivered := inner.stats()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
}

func TestAsyncSender_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakySender{failTimes: 10}
	sender := newAsyncSender(inner, nil, 3, time.Millisecond)

	if err := sender.SendPasswordReset(context.Background(), "bob@example.com", "https://app.example.com/reset-password/x"); err != nil {
		t.Fatalf("enqueue must not fail: %v", err)
	}
	sender.Close()

	calls, delivered := inner.stats()
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if delivered != 0 {
		t.Fatalf("expected no delivery, got %d", delivered)
	}
}

func TestAsyncSender_ReturnsBeforeDelivery(t *testing.T) {
	release := make(chan struct{})
	inner := &blockingSender{release: release}
	sender := NewAsyncSender(inner, nil)

	start := time.Now()
	if err := sender.SendVerificationOTP(context.Background(), "alice@example.com", "123456", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("enqueue blocked for %v", elapsed)
	}

	close(release)
	sender.Close()
}

type blockingSender struct {
	release chan struct{}
}

func (s *blockingSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	<-s.release
	return nil
}

func (s *blockingSender) SendPasswordReset(_ context.Context, _ string, _ string) error {
	<-s.release
	return nil
}
