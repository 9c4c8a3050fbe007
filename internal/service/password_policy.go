package service

import (
	"errors"
	"strings"
	"unicode"

	"auth-service/internal/domain"
)

var (
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordNumeric    = errors.New("password is entirely numeric")
	ErrPasswordTooCommon  = errors.New("password is too common")
	ErrPasswordTooSimilar = errors.New("password too similar to user attributes")
)

// Subconjunto de contrasenas frecuentes; suficiente para frenar lo obvio.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"passw0rd":   {},
	"12345678":   {},
	"123456789":  {},
	"1234567890": {},
	"qwerty123":  {},
	"qwertyuiop": {},
	"iloveyou":   {},
	"letmein":    {},
	"welcome1":   {},
	"admin123":   {},
	"sunshine":   {},
	"princess":   {},
	"football":   {},
	"baseball":   {},
	"monkey123":  {},
	"dragon123":  {},
	"superman":   {},
	"trustno1":   {},
}

// PasswordPolicy valida la fortaleza de contrasenas nuevas.
type PasswordPolicy struct {
	minLength int
}

func NewPasswordPolicy(minLength int) *PasswordPolicy {
	if minLength <= 0 {
		minLength = 8
	}
	return &PasswordPolicy{minLength: minLength}
}

// Validate aplica las reglas de fortaleza contra la contrasena candidata.
// user puede ser nil cuando no hay cuenta asociada todavia.
func (p *PasswordPolicy) Validate(password string, user *domain.User) error {
	if len(password) < p.minLength {
		return ErrPasswordTooShort
	}
	if isAllNumeric(password) {
		return ErrPasswordNumeric
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordTooCommon
	}
	if user != nil && similarToUser(password, user) {
		return ErrPasswordTooSimilar
	}
	return nil
}

func isAllNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func similarToUser(password string, user *domain.User) bool {
	lower := strings.ToLower(password)
	attrs := []string{user.FirstName, user.LastName}
	if at := strings.IndexByte(user.Email, '@'); at > 0 {
		attrs = append(attrs, user.Email[:at])
	} else {
		attrs = append(attrs, user.Email)
	}
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len(attr) < 3 {
			continue
		}
		if strings.Contains(lower, attr) || strings.Contains(attr, lower) {
			return true
		}
	}
	return false
}
