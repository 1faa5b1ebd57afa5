// Package otps provides a PostgreSQL-backed repository for the standalone
// codes of the forgot-password flow.
package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, otp *models.PasswordResetOTP) (*models.PasswordResetOTP, error) {
	query := `
		INSERT INTO password_reset_otps (email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, otp.Email, otp.Code, otp.CreatedAt, otp.ExpiresAt).Scan(&otp.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return otp, nil
}

func (r *PostgresRepository) FindLatestActive(ctx context.Context, email string, now time.Time) (*models.PasswordResetOTP, error) {
	query := `
		SELECT id, email, code, created_at, expires_at, used
		FROM password_reset_otps
		WHERE email = $1 AND used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, email, now)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PasswordResetOTP, error) {
	query := `
		SELECT id, email, code, created_at, expires_at, used
		FROM password_reset_otps
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.PasswordResetOTP, error) {
	o := &models.PasswordResetOTP{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&o.ID, &o.Email, &o.Code, &o.CreatedAt, &o.ExpiresAt, &o.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	query := `
		UPDATE password_reset_otps SET used = TRUE
		WHERE id = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
