package companion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/auralabs/aura/pkg/uuid"
)

// Conversation domain model. Each companion owns exactly one.
type Conversation struct {
	ID          string    `json:"id"`
	CompanionID string    `json:"companionId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Conversation returns the companion's conversation, creating it lazily if
// absent. The UNIQUE(companion_id) constraint plus ON CONFLICT DO NOTHING
// makes concurrent first calls converge on a single row.
func (s *Service) Conversation(ctx context.Context, companionID string) (*Conversation, error) {
	c, err := s.Get(ctx, companionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, companion_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(companion_id) DO NOTHING`,
		uuid.NewV7().String(), companionID, "Chat with "+c.Name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation for %s: %w", companionID, err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, companion_id, name, created_at, updated_at
		FROM conversations WHERE companion_id = ?`, companionID)

	var conv Conversation
	var createdAt, updatedAt string
	if scanErr := row.Scan(&conv.ID, &conv.CompanionID, &conv.Name, &createdAt, &updatedAt); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation for %s vanished after ensure: %w", companionID, scanErr)
		}
		return nil, fmt.Errorf("get conversation for %s: %w", companionID, scanErr)
	}
	conv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	conv.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &conv, nil
}
