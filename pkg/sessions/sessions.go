// Package sessions defines the persistence boundary for OAuth sessions.
package sessions

import (
	"context"
	"errors"

	"github.com/tailorbase/storesmith/pkg/models"
)

// ErrSessionNotFound indicates no session is stored for the given shop.
var ErrSessionNotFound = errors.New("session not found")

// Store persists one session per shop. Implementations are selected by
// URL scheme (file, redis, postgres).
type Store interface {
	StoreSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, shop string) (*models.Session, error)
	DeleteSession(ctx context.Context, shop string) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsSessionNotFound checks if an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
