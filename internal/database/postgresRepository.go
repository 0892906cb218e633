package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ds124wfegd/pushService/internal/entity"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) SubscriptionRepository {
	return &postgresRepository{db: db}
}

// RunMigrations creates the subscriptions table if it does not exist.
func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS subscriptions (
			endpoint TEXT PRIMARY KEY,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) Save(ctx context.Context, sub *entity.Subscription) error {
	query := `INSERT INTO subscriptions (endpoint, p256dh, auth)
		VALUES ($1, $2, $3)
		ON CONFLICT (endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (r *postgresRepository) Get(ctx context.Context, endpoint string) (*entity.Subscription, error) {
	var sub entity.Subscription
	err := r.db.QueryRowContext(ctx,
		`SELECT endpoint, p256dh, auth FROM subscriptions WHERE endpoint = $1`, endpoint).
		Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *postgresRepository) Delete(ctx context.Context, endpoint string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*entity.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT endpoint, p256dh, auth FROM subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []*entity.Subscription
	for rows.Next() {
		var sub entity.Subscription
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, &sub)
	}
	return subscriptions, rows.Err()
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&count)
	return count, err
}
