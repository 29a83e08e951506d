// Package credential stores per-provider API keys. Secrets are write-only
// through the public surface: callers learn presence and validity, never
// the stored value (adapters read secrets through Secret at call time).
package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/auralabs/aura/pkg/uuid"
)

// ErrEmptySecret is returned when an upsert carries an empty or
// whitespace-only secret. Nothing is written in that case.
var ErrEmptySecret = errors.New("credential secret is empty")

// Credential describes a stored key without exposing the secret.
type Credential struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	IsValid   bool      `json:"isValid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service provides credential operations over the api_keys table.
type Service struct {
	db *sql.DB
}

// NewService creates a credential Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Upsert stores a secret for provider, overwriting any existing row
// (one credential per provider). Validity is re-derived from the key
// shape on every save.
func (s *Service) Upsert(ctx context.Context, provider, secret string) (*Credential, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, provider, key, is_valid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			key        = excluded.key,
			is_valid   = excluded.is_valid,
			updated_at = excluded.updated_at`,
		uuid.NewV7().String(), provider, secret, boolToInt(Plausible(provider, secret)), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert credential %s: %w", provider, err)
	}

	return s.get(ctx, provider)
}

// Secret returns the stored secret for provider, or "" when no valid
// credential exists. Implements the CredentialSource contract of the
// provider adapters.
func (s *Service) Secret(ctx context.Context, provider string) (string, error) {
	var key string
	row := s.db.QueryRowContext(ctx,
		"SELECT key FROM api_keys WHERE provider = ? AND is_valid = 1", provider)
	if err := row.Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read credential %s: %w", provider, err)
	}
	return key, nil
}

// Status reports which of the given providers hold a valid credential.
// Providers without a row map to false.
func (s *Service) Status(ctx context.Context, providers ...string) (map[string]bool, error) {
	status := make(map[string]bool, len(providers))
	for _, p := range providers {
		status[p] = false
	}

	rows, err := s.db.QueryContext(ctx, "SELECT provider, is_valid FROM api_keys")
	if err != nil {
		return nil, fmt.Errorf("list credential status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var provider string
		var isValid int
		if scanErr := rows.Scan(&provider, &isValid); scanErr != nil {
			return nil, fmt.Errorf("scan credential status: %w", scanErr)
		}
		if _, tracked := status[provider]; tracked || len(providers) == 0 {
			status[provider] = isValid == 1
		}
	}
	return status, rows.Err()
}

// Plausible applies the per-provider key-shape heuristic. It cannot prove
// a key works, only reject obvious garbage before a provider call does.
func Plausible(provider, secret string) bool {
	if len(secret) < 10 {
		return false
	}
	switch provider {
	case "gemini":
		return strings.HasPrefix(secret, "AI") || len(secret) > 20
	case "deepseek", "stability":
		return strings.HasPrefix(secret, "sk-") || len(secret) > 20
	default:
		return true
	}
}

func (s *Service) get(ctx context.Context, provider string) (*Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, is_valid, created_at, updated_at
		FROM api_keys WHERE provider = ?`, provider)

	var c Credential
	var isValid int
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.Provider, &isValid, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("get credential %s: %w", provider, err)
	}
	c.IsValid = isValid == 1
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
