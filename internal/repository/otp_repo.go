package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-service/internal/domain"
)

// OTPRepository define el contrato de persistencia para codigos OTP.
type OTPRepository interface {
	// Replace invalida todos los OTP sin usar del usuario e inserta el
	// nuevo, todo dentro de una misma transaccion: nunca quedan dos
	// codigos vivos para la misma cuenta.
	Replace(ctx context.Context, otp domain.EmailOTP) error
	// LatestUnused devuelve el OTP sin usar mas reciente para el par
	// (usuario, codigo). pgx.ErrNoRows si no hay coincidencia.
	LatestUnused(ctx context.Context, userID, code string) (domain.EmailOTP, error)
	// Consume marca el OTP como usado y activa al usuario en una sola
	// transaccion. El UPDATE exige used=false, asi que consumir dos
	// veces el mismo codigo devuelve pgx.ErrNoRows la segunda vez.
	Consume(ctx context.Context, otpID, userID string) error
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Replace(ctx context.Context, otp domain.EmailOTP) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const invalidate = `UPDATE email_otps SET used = true WHERE user_id = $1 AND used = false`
	if _, err := tx.Exec(ctx, invalidate, otp.UserID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO email_otps (id, user_id, code, used, created_at)
		VALUES ($1, $2, $3, false, $4)
	`
	if _, err := tx.Exec(ctx, insert, otp.ID, otp.UserID, otp.Code, otp.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgOTPRepository) LatestUnused(ctx context.Context, userID, code string) (domain.EmailOTP, error) {
	const query = `
		SELECT id, user_id, code, used, created_at
		FROM email_otps
		WHERE user_id = $1 AND code = $2 AND used = false
		ORDER BY created_at DESC
		LIMIT 1
	`
	var o domain.EmailOTP
	err := r.pool.QueryRow(ctx, query, userID, code).Scan(
		&o.ID,
		&o.UserID,
		&o.Code,
		&o.Used,
		&o.CreatedAt,
	)
	return o, err
}

func (r *PgOTPRepository) Consume(ctx context.Context, otpID, userID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const markUsed = `UPDATE email_otps SET used = true WHERE id = $1 AND used = false`
	tag, err := tx.Exec(ctx, markUsed, otpID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const activate = `UPDATE users SET is_active = true, updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, activate, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
