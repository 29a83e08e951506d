// Package companion provides the conversation store: companions, their
// single conversation, and the ordered message history.
package companion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/auralabs/aura/pkg/uuid"
)

var (
	// ErrNotFound — the referenced companion does not exist.
	ErrNotFound = errors.New("companion not found")

	// ErrInvalidInput — creation input failed validation; nothing written.
	ErrInvalidInput = errors.New("invalid companion input")
)

// Companion domain model.
type Companion struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Avatar          *string    `json:"avatar,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Personality     string     `json:"personality"`
	IsOnline        bool       `json:"isOnline"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
}

// CreateInput defines required + optional fields for companion creation.
type CreateInput struct {
	Name        string
	Role        string
	Personality string
	Description string
	Avatar      string
}

// Service provides companion, conversation and message operations.
type Service struct {
	db *sql.DB
}

// NewService creates a companion Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const minFieldLen = 2

// Create validates input and inserts the companion together with its
// conversation and a welcome message, in one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Companion, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	companionID := uuid.NewV7().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create companion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO companions (id, name, role, avatar, description, personality, is_online, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
		companionID, input.Name, input.Role,
		nullString(input.Avatar), nullString(input.Description),
		input.Personality, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("create companion: %w", err)
	}

	conversationID := uuid.NewV7().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, companion_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		conversationID, companionID, "Chat with "+input.Name,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	welcome := fmt.Sprintf("Hi there! I'm %s, your %s! How can I help you today?",
		input.Name, strings.ToLower(input.Role))
	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewV7().String(), conversationID, RoleAssistant, welcome,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("create welcome message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create companion: commit: %w", err)
	}

	return s.Get(ctx, companionID)
}

// Get retrieves a companion by ID.
func (s *Service) Get(ctx context.Context, companionID string) (*Companion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, avatar, description, personality, is_online, created_at, last_interaction
		FROM companions WHERE id = ?`, companionID)

	c, err := scanCompanion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("companion %s: %w", companionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get companion %s: %w", companionID, err)
	}
	return c, nil
}

// List retrieves all companions, newest first.
func (s *Service) List(ctx context.Context) ([]*Companion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, avatar, description, personality, is_online, created_at, last_interaction
		FROM companions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list companions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var companions []*Companion
	for rows.Next() {
		c, scanErr := scanCompanion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan companion: %w", scanErr)
		}
		companions = append(companions, c)
	}
	return companions, rows.Err()
}

func validateCreateInput(input CreateInput) error {
	for field, value := range map[string]string{
		"name":        input.Name,
		"role":        input.Role,
		"personality": input.Personality,
	} {
		if utf8.RuneCountInString(strings.TrimSpace(value)) < minFieldLen {
			return fmt.Errorf("%s must be at least %d characters: %w", field, minFieldLen, ErrInvalidInput)
		}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCompanion(row scanner) (*Companion, error) {
	var c Companion
	var isOnline int
	var createdAt string
	var lastInteraction *string

	err := row.Scan(&c.ID, &c.Name, &c.Role, &c.Avatar, &c.Description,
		&c.Personality, &isOnline, &createdAt, &lastInteraction)
	if err != nil {
		return nil, err
	}

	c.IsOnline = isOnline == 1
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastInteraction != nil {
		t, parseErr := time.Parse(time.RFC3339, *lastInteraction)
		if parseErr == nil {
			c.LastInteraction = &t
		}
	}
	return &c, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
