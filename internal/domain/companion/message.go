package companion

import (
	"context"
	"fmt"
	"time"

	"github.com/auralabs/aura/pkg/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message domain model. Messages are immutable once written and ordered by
// creation time (nanosecond precision) with the time-sortable id as
// tiebreak.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ImageURL       *string   `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AppendMessageInput describes a message to persist for a companion.
type AppendMessageInput struct {
	CompanionID string
	Role        string
	Content     string
	ImageURL    string
}

// Messages returns the companion's full history, oldest first.
func (s *Service) Messages(ctx context.Context, companionID string) ([]*Message, error) {
	conv, err := s.Conversation(ctx, companionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, image_url, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC`, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", companionID, err)
	}
	defer rows.Close() //nolint:errcheck

	var messages []*Message
	for rows.Next() {
		m, scanErr := scanMessage(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan message: %w", scanErr)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// RecentMessages returns the companion's last limit messages, oldest first.
func (s *Service) RecentMessages(ctx context.Context, companionID string, limit int) ([]*Message, error) {
	conv, err := s.Conversation(ctx, companionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, image_url, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, conv.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages for %s: %w", companionID, err)
	}
	defer rows.Close() //nolint:errcheck

	var newestFirst []*Message
	for rows.Next() {
		m, scanErr := scanMessage(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan message: %w", scanErr)
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to chronological order
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst, nil
}

// AppendMessage persists a message and bumps the conversation's updated_at
// and the companion's last_interaction in the same transaction, so a
// partial failure can never advance one without the other.
func (s *Service) AppendMessage(ctx context.Context, input AppendMessageInput) (*Message, error) {
	conv, err := s.Conversation(ctx, input.CompanionID)
	if err != nil {
		return nil, err
	}

	messageID := uuid.NewV7().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append message: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		messageID, conv.ID, input.Role, input.Content,
		nullString(input.ImageURL), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		now.Format(time.RFC3339), conv.ID)
	if err != nil {
		return nil, fmt.Errorf("bump conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE companions SET last_interaction = ? WHERE id = ?",
		now.Format(time.RFC3339), input.CompanionID)
	if err != nil {
		return nil, fmt.Errorf("bump companion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append message: commit: %w", err)
	}

	return &Message{
		ID:             messageID,
		ConversationID: conv.ID,
		Role:           input.Role,
		Content:        input.Content,
		ImageURL:       nullString(input.ImageURL),
		CreatedAt:      now,
	}, nil
}

func scanMessage(row scanner) (*Message, error) {
	var m Message
	var createdAt string
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ImageURL, &createdAt); err != nil {
		return nil, err
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &m, nil
}
