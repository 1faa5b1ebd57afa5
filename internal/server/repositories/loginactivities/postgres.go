// Package loginactivities stores one row per successful OTP verification.
package loginactivities

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.LoginActivity) (*models.LoginActivity, error) {
	query := `
		INSERT INTO login_activities (user_id, ip_address, city, region, country, latitude, longitude, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.UserID, a.IPAddress, a.City, a.Region, a.Country, a.Latitude, a.Longitude, a.Device,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.LoginActivity, error) {
	query := `
		SELECT id, user_id, ip_address, city, region, country, latitude, longitude, device, created_at
		FROM login_activities
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.LoginActivity, 0)
	for rows.Next() {
		a := &models.LoginActivity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.IPAddress, &a.City, &a.Region, &a.Country,
			&a.Latitude, &a.Longitude, &a.Device, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
