package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-service/internal/domain"
)

// ResetTokenRepository define el contrato de persistencia para tokens de
// reseteo de contrasena.
type ResetTokenRepository interface {
	// Replace invalida todos los tokens sin usar del usuario e inserta el
	// nuevo dentro de una misma transaccion.
	Replace(ctx context.Context, token domain.PasswordResetToken) error
	// ListUnused devuelve todos los tokens vivos. El token crudo no es
	// indexable una vez que solo existe su hash, asi que el match se hace
	// recorriendo esta lista.
	ListUnused(ctx context.Context) ([]domain.PasswordResetToken, error)
	// Consume marca el token como usado y fija la nueva contrasena del
	// usuario en una sola transaccion. El UPDATE exige used=false: un
	// token ya consumido devuelve pgx.ErrNoRows.
	Consume(ctx context.Context, tokenID, userID, passwordHash string) error
}

// PgResetTokenRepository implementa ResetTokenRepository usando pgxpool.
type PgResetTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgResetTokenRepository(pool *pgxpool.Pool) *PgResetTokenRepository {
	return &PgResetTokenRepository{pool: pool}
}

func (r *PgResetTokenRepository) Replace(ctx context.Context, token domain.PasswordResetToken) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const invalidate = `UPDATE password_reset_tokens SET used = true WHERE user_id = $1 AND used = false`
	if _, err := tx.Exec(ctx, invalidate, token.UserID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, used, created_at)
		VALUES ($1, $2, $3, false, $4)
	`
	if _, err := tx.Exec(ctx, insert, token.ID, token.UserID, token.TokenHash, token.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgResetTokenRepository) ListUnused(ctx context.Context) ([]domain.PasswordResetToken, error) {
	const query = `
		SELECT id, user_id, token_hash, used, created_at
		FROM password_reset_tokens
		WHERE used = false
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.PasswordResetToken
	for rows.Next() {
		var t domain.PasswordResetToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Used, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *PgResetTokenRepository) Consume(ctx context.Context, tokenID, userID, passwordHash string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const markUsed = `UPDATE password_reset_tokens SET used = true WHERE id = $1 AND used = false`
	tag, err := tx.Exec(ctx, markUsed, tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const setPassword = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, setPassword, userID, passwordHash); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
