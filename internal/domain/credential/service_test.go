package credential_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/auralabs/aura/internal/domain/credential"
	"github.com/auralabs/aura/internal/infra/sqlite"
)

func mustOpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUpsert_RejectsEmptySecret(t *testing.T) {
	t.Parallel()

	svc := credential.NewService(mustOpenDB(t))

	for _, secret := range []string{"", "   ", "\t\n"} {
		_, err := svc.Upsert(context.Background(), "gemini", secret)
		if !errors.Is(err, credential.ErrEmptySecret) {
			t.Errorf("Upsert(%q) error = %v; want ErrEmptySecret", secret, err)
		}
	}

	status, err := svc.Status(context.Background(), "gemini")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status["gemini"] {
		t.Error("gemini reported present after rejected upserts")
	}
}

func TestUpsert_OverwritesNotDuplicates(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	svc := credential.NewService(db)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "gemini", "AIzaSyA-first-key"); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if _, err := svc.Upsert(ctx, "gemini", "AIzaSyB-second-key"); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM api_keys WHERE provider = 'gemini'").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("gemini rows = %d; want exactly 1 after two upserts", count)
	}

	secret, err := svc.Secret(ctx, "gemini")
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret != "AIzaSyB-second-key" {
		t.Errorf("Secret() = %q; want the second key", secret)
	}
}

func TestSecret_AbsentProviderIsEmpty(t *testing.T) {
	t.Parallel()

	svc := credential.NewService(mustOpenDB(t))

	secret, err := svc.Secret(context.Background(), "deepseek")
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret != "" {
		t.Errorf("Secret() = %q; want empty for absent provider", secret)
	}
}

func TestSecret_InvalidKeyNotReturned(t *testing.T) {
	t.Parallel()

	svc := credential.NewService(mustOpenDB(t))
	ctx := context.Background()

	// too short to be plausible — stored but marked invalid
	if _, err := svc.Upsert(ctx, "deepseek", "sk-short"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	secret, err := svc.Secret(ctx, "deepseek")
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if secret != "" {
		t.Errorf("Secret() = %q; want empty for invalid key", secret)
	}
}

func TestStatus_ReportsPresenceOnly(t *testing.T) {
	t.Parallel()

	svc := credential.NewService(mustOpenDB(t))
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "gemini", "AIzaSyA-valid-key"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	status, err := svc.Status(ctx, "gemini", "deepseek", "stability")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	want := map[string]bool{"gemini": true, "deepseek": false, "stability": false}
	for provider, expected := range want {
		if status[provider] != expected {
			t.Errorf("Status()[%s] = %v; want %v", provider, status[provider], expected)
		}
	}
}

func TestPlausible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider, secret string
		want             bool
	}{
		{"gemini", "AIzaSyExample", true},
		{"gemini", "short", false},
		{"deepseek", "sk-abcdef1234", true},
		{"deepseek", "nosuchprefix", false},
		{"stability", "sk-abcdef1234", true},
		{"huggingface", "hf_sometokenvalue", true},
		{"huggingface", "tiny", false},
	}
	for _, tc := range tests {
		if got := credential.Plausible(tc.provider, tc.secret); got != tc.want {
			t.Errorf("Plausible(%s, %q) = %v; want %v", tc.provider, tc.secret, got, tc.want)
		}
	}
}
