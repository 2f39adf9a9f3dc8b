// Package postgres provides PostgreSQL-backed session persistence.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/sessions"
)

// Store implements sessions.Store on PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to PostgreSQL and runs migrations.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.With("module", "postgres_sessions"),
	}

	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running session store migrations")

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			shop TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			scope TEXT NOT NULL DEFAULT '',
			is_online BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`)

	return err
}

func (s *Store) StoreSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (shop, access_token, scope, is_online, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shop) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			is_online = EXCLUDED.is_online,
			created_at = EXCLUDED.created_at
	`, session.Shop, session.AccessToken, session.Scope, session.IsOnline, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store session for %s: %w", session.Shop, err)
	}

	return nil
}

func (s *Store) GetSession(ctx context.Context, shop string) (*models.Session, error) {
	var session models.Session

	err := s.db.QueryRowContext(ctx, `
		SELECT shop, access_token, scope, is_online, created_at
		FROM sessions WHERE shop = $1
	`, shop).Scan(&session.Shop, &session.AccessToken, &session.Scope, &session.IsOnline, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("shop %s: %w", shop, sessions.ErrSessionNotFound)
		}

		return nil, fmt.Errorf("failed to read session for %s: %w", shop, err)
	}

	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, shop string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE shop = $1", shop); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", shop, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
