// Package file provides file-based session persistence, one JSON document
// per shop.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/sessions"
)

const sessionFileMode = 0o600

// Store implements sessions.Store on the local filesystem.
type Store struct {
	root string
}

// NewStore creates a file-backed session store rooted at the given
// directory. Accepts a bare path or a file:// URL.
func NewStore(root string) *Store {
	return &Store{root: strings.Replace(root, "file://", "", 1)}
}

func (s *Store) StoreSession(_ context.Context, session *models.Session) error {
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", session.Shop, err)
	}

	if err := os.WriteFile(s.path(session.Shop), data, sessionFileMode); err != nil {
		return fmt.Errorf("failed to write session for %s: %w", session.Shop, err)
	}

	return nil
}

func (s *Store) GetSession(_ context.Context, shop string) (*models.Session, error) {
	data, err := os.ReadFile(s.path(shop))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("shop %s: %w", shop, sessions.ErrSessionNotFound)
		}

		return nil, fmt.Errorf("failed to read session for %s: %w", shop, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session for %s: %w", shop, err)
	}

	return &session, nil
}

func (s *Store) DeleteSession(_ context.Context, shop string) error {
	err := os.Remove(s.path(shop))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session for %s: %w", shop, err)
	}

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) path(shop string) string {
	return filepath.Join(s.root, shop+".json")
}
