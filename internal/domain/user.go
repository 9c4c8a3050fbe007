package domain

import "time"

// User representa una cuenta del sistema.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName devuelve nombre y apellido concatenados.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// EmailOTP es un codigo de verificacion de email de un solo uso.
type EmailOTP struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"-"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired indica si el codigo supero la ventana de validez.
func (o EmailOTP) Expired(window time.Duration, now time.Time) bool {
	return now.After(o.CreatedAt.Add(window))
}

// PasswordResetToken guarda solo el hash del token crudo; el token en claro
// viaja una unica vez en el correo de reset.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired indica si el token supero la ventana de validez.
func (t PasswordResetToken) Expired(window time.Duration, now time.Time) bool {
	return now.After(t.CreatedAt.Add(window))
}
