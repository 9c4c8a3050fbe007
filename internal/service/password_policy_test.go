package service

import (
	"errors"
	"testing"

	"auth-service/internal/domain"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := NewPasswordPolicy(8)
	user := &domain.User{
		Email:     "alice@example.com",
		FirstName: "Alicia",
		LastName:  "Fernandez",
	}

	cases := []struct {
		name     string
		password string
		want     error
	}{
		{"ok", "S3guraClave!", nil},
		{"too short", "abc123", ErrPasswordTooShort},
		{"all numeric", "0123456789", ErrPasswordNumeric},
		{"common", "qwertyuiop", ErrPasswordTooCommon},
		{"common mixed case", "PassWord1", ErrPasswordTooCommon},
		{"contains email local part", "xxalicexx99", ErrPasswordTooSimilar},
		{"contains last name", "fernandez22", ErrPasswordTooSimilar},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.password, user)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPasswordPolicy_NilUserSkipsSimilarity(t *testing.T) {
	policy := NewPasswordPolicy(8)
	if err := policy.Validate("xxalicexx99", nil); err != nil {
		t.Fatalf("expected ok without user context, got %v", err)
	}
}

func TestPasswordPolicy_DefaultMinLength(t *testing.T) {
	policy := NewPasswordPolicy(0)
	if err := policy.Validate("abcdef1", nil); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort with default min, got %v", err)
	}
}
