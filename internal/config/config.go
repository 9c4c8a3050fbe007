package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret                 string `env:"JWT_SECRET,required"`
	JWTAccessTTLMinutes       int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLDays         int    `env:"JWT_REFRESH_TTL_DAYS" envDefault:"7"`
	JWTRotateOnRefresh        bool   `env:"JWT_ROTATE_ON_REFRESH" envDefault:"false"`
	JWTBlacklistAfterRotation bool   `env:"JWT_BLACKLIST_AFTER_ROTATION" envDefault:"true"`

	OTPExpiryMinutes        int `env:"OTP_EXPIRY_MINUTES" envDefault:"10"`
	ResetTokenExpiryMinutes int `env:"RESET_TOKEN_EXPIRY_MINUTES" envDefault:"10"`

	FrontendBaseURL   string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
	PasswordMinLength int    `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
