// Package settings stores the single-user application settings row.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPreferences — the preferences payload is not a JSON object.
var ErrInvalidPreferences = errors.New("preferences must be a JSON object")

// Settings is the app-wide configuration row. There is exactly one.
type Settings struct {
	ActiveModel  string          `json:"activeModel"`
	Theme        string          `json:"theme"`
	VoiceEnabled bool            `json:"voiceEnabled"`
	Preferences  json.RawMessage `json:"preferences"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// UpdateInput carries partial settings updates. Nil fields keep the
// stored value.
type UpdateInput struct {
	ActiveModel  *string         `json:"activeModel"`
	Theme        *string         `json:"theme"`
	VoiceEnabled *bool           `json:"voiceEnabled"`
	Preferences  json.RawMessage `json:"preferences"`
}

// Service provides settings reads and updates over the single row.
type Service struct {
	db *sql.DB
}

// NewService creates a settings Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Get returns the settings row, inserting the defaults on first read.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, created_at, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING`, now, now)
	if err != nil {
		return nil, fmt.Errorf("ensure settings row: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT active_model, theme, voice_enabled, preferences, updated_at
		FROM settings WHERE id = 1`)

	var out Settings
	var voiceEnabled int
	var preferences, updatedAt string
	if err := row.Scan(&out.ActiveModel, &out.Theme, &voiceEnabled, &preferences, &updatedAt); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	out.VoiceEnabled = voiceEnabled == 1
	out.Preferences = json.RawMessage(preferences)
	out.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &out, nil
}

// Update applies the non-nil fields of input and returns the new state.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.ActiveModel != nil {
		current.ActiveModel = *input.ActiveModel
	}
	if input.Theme != nil {
		current.Theme = *input.Theme
	}
	if input.VoiceEnabled != nil {
		current.VoiceEnabled = *input.VoiceEnabled
	}
	if input.Preferences != nil {
		var obj map[string]any
		if err := json.Unmarshal(input.Preferences, &obj); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidPreferences)
		}
		current.Preferences = input.Preferences
	}

	voiceEnabled := 0
	if current.VoiceEnabled {
		voiceEnabled = 1
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		UPDATE settings SET active_model = ?, theme = ?, voice_enabled = ?,
			preferences = ?, updated_at = ?
		WHERE id = 1`,
		current.ActiveModel, current.Theme, voiceEnabled,
		string(current.Preferences), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	current.UpdatedAt = now
	return current, nil
}
