package chat_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/auralabs/aura/internal/domain/chat"
	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/auralabs/aura/internal/infra/eventbus"
	"github.com/auralabs/aura/internal/infra/llm"
	"github.com/auralabs/aura/internal/infra/sqlite"
)

// fakeProvider records requests and returns a fixed result or error.
type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
	last  llm.GenerateRequest
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateText(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResult{Text: f.text, Provider: f.name}, nil
}

type fixture struct {
	db         *sql.DB
	companions *companion.Service
	gemini     *fakeProvider
	deepseek   *fakeProvider
	bus        *eventbus.Bus
	orch       *chat.Orchestrator
	luna       *companion.Companion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	companions := companion.NewService(db)
	luna, err := companions.Create(context.Background(), companion.CreateInput{
		Name: "Luna", Role: "Creative Friend", Personality: "creative",
	})
	if err != nil {
		t.Fatalf("create companion: %v", err)
	}

	gemini := &fakeProvider{name: "gemini", text: "a gemini reply"}
	deepseek := &fakeProvider{name: "deepseek", text: "a deepseek reply"}
	registry, err := llm.NewRegistry("gemini", gemini, deepseek)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	bus := eventbus.New()
	return &fixture{
		db:         db,
		companions: companions,
		gemini:     gemini,
		deepseek:   deepseek,
		bus:        bus,
		orch:       chat.NewOrchestrator(companions, registry, bus, zap.NewNop(), 5*time.Second),
		luna:       luna,
	}
}

// clearMessages removes the seeded welcome message so a test can start from
// an empty history.
func (f *fixture) clearMessages(t *testing.T) {
	t.Helper()
	if _, err := f.db.Exec("DELETE FROM messages"); err != nil {
		t.Fatalf("clear messages: %v", err)
	}
}

func TestRespond_EmptyHistoryOmitsContextBlock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.clearMessages(t)

	if _, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: f.luna.ID, Content: "hello", Provider: "gemini",
	}); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if f.gemini.last.Prompt != "hello" {
		t.Errorf("prompt = %q; want bare user text with no context block", f.gemini.last.Prompt)
	}
	if !strings.Contains(f.gemini.last.System, "You are Luna") {
		t.Errorf("system = %q; persona framing missing", f.gemini.last.System)
	}
}

func TestRespond_ContextBlockFromHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// the welcome message is the only history
	if _, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: f.luna.ID, Content: "hello", Provider: "gemini",
	}); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	prompt := f.gemini.last.Prompt
	if !strings.HasPrefix(prompt, "Here are the most recent messages in our conversation:\n") {
		t.Errorf("prompt = %q; missing context block header", prompt)
	}
	if !strings.Contains(prompt, "Luna: Hi there! I'm Luna, your creative friend!") {
		t.Errorf("prompt = %q; history line not attributed to the companion", prompt)
	}
	if !strings.Contains(prompt, "\nContinue the conversation as if you are Luna.\n") {
		t.Errorf("prompt = %q; missing closing instruction", prompt)
	}
	if !strings.HasSuffix(prompt, "hello") {
		t.Errorf("prompt = %q; user text must come last", prompt)
	}
	if strings.Contains(prompt, "Human: hello") {
		t.Errorf("prompt = %q; the new user text must not repeat in the context block", prompt)
	}
}

func TestRespond_FallbackToDefaultProvider(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deepseek.err = fmt.Errorf("deepseek: %w", llm.ErrUpstreamUnavailable)

	result, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: f.luna.ID, Content: "hi", Provider: "deepseek",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if f.deepseek.calls != 1 {
		t.Errorf("deepseek calls = %d; want 1", f.deepseek.calls)
	}
	if f.gemini.calls != 1 {
		t.Errorf("gemini fallback calls = %d; want exactly 1", f.gemini.calls)
	}
	if result.Provider != "gemini" {
		t.Errorf("result provider = %q; want the fallback that produced the text", result.Provider)
	}
	if result.AssistantMessage.Content != "a gemini reply" {
		t.Errorf("assistant content = %q; want fallback text", result.AssistantMessage.Content)
	}
}

func TestRespond_ApologyWhenNoCredentialsAnywhere(t *testing.T) {
	t.Parallel()

	// real adapters against an empty credential store: both fail before any
	// network call, leaving only the canned apology
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	companions := companion.NewService(db)
	luna, err := companions.Create(context.Background(), companion.CreateInput{
		Name: "Luna", Role: "Creative Friend", Personality: "creative",
	})
	if err != nil {
		t.Fatalf("create companion: %v", err)
	}
	if _, err := db.Exec("DELETE FROM messages"); err != nil {
		t.Fatalf("clear messages: %v", err)
	}

	creds := emptyCreds{}
	registry, err := llm.NewRegistry("gemini",
		llm.NewGeminiProvider(creds, llm.GeminiConfig{}),
		llm.NewDeepSeekProvider(creds, llm.DeepSeekConfig{}),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	orch := chat.NewOrchestrator(companions, registry, eventbus.New(), zap.NewNop(), time.Second)
	result, err := orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: luna.ID, Content: "hello", Provider: "gemini",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v; generation failure must not surface", err)
	}

	want := "I'm Luna, but I'm having trouble connecting to my AI services right now. Could you try again in a moment?"
	if result.AssistantMessage.Content != want {
		t.Errorf("assistant content = %q; want the canned apology", result.AssistantMessage.Content)
	}
	if result.Provider != "gemini" {
		t.Errorf("result provider = %q; want the originally requested provider", result.Provider)
	}

	messages, err := companions.Messages(context.Background(), luna.ID)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 || messages[0].Role != companion.RoleUser || messages[1].Role != companion.RoleAssistant {
		t.Errorf("persisted %d messages; want exactly one user + one assistant", len(messages))
	}
}

type emptyCreds struct{}

func (emptyCreds) Secret(context.Context, string) (string, error) { return "", nil }

func TestRespond_SequentialOrdering(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.clearMessages(t)
	ctx := context.Background()

	const rounds = 4
	for i := 0; i < rounds; i++ {
		f.gemini.text = fmt.Sprintf("reply %d", i)
		if _, err := f.orch.Respond(ctx, chat.RespondInput{
			CompanionID: f.luna.ID,
			Content:     fmt.Sprintf("turn %d", i),
			Provider:    "gemini",
		}); err != nil {
			t.Fatalf("Respond() round %d error = %v", i, err)
		}
	}

	messages, err := f.companions.Messages(ctx, f.luna.ID)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2*rounds {
		t.Fatalf("messages = %d; want %d", len(messages), 2*rounds)
	}
	for i := 0; i < rounds; i++ {
		user, assistant := messages[2*i], messages[2*i+1]
		if user.Role != companion.RoleUser || user.Content != fmt.Sprintf("turn %d", i) {
			t.Errorf("position %d = %s %q; want user turn %d", 2*i, user.Role, user.Content, i)
		}
		if assistant.Role != companion.RoleAssistant || assistant.Content != fmt.Sprintf("reply %d", i) {
			t.Errorf("position %d = %s %q; want assistant reply %d", 2*i+1, assistant.Role, assistant.Content, i)
		}
	}
}

func TestRespond_ExtractsEmbeddedImage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gemini.text = "Here: ![pic](http://x/y.png) enjoy"

	result, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: f.luna.ID, Content: "draw something", Provider: "gemini",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if result.AssistantMessage.Content != "Here:  enjoy" {
		t.Errorf("content = %q; want image markdown stripped", result.AssistantMessage.Content)
	}
	if result.AssistantMessage.ImageURL == nil || *result.AssistantMessage.ImageURL != "http://x/y.png" {
		t.Errorf("ImageURL = %v; want http://x/y.png", result.AssistantMessage.ImageURL)
	}
}

func TestRespond_UnknownCompanion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: "no-such-id", Content: "hello", Provider: "gemini",
	})
	if !errors.Is(err, companion.ErrNotFound) {
		t.Errorf("Respond() error = %v; want companion.ErrNotFound", err)
	}
	if f.gemini.calls != 0 {
		t.Errorf("gemini calls = %d; nothing should be generated for a missing companion", f.gemini.calls)
	}
}

func TestRespond_PublishesChatEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	typing := f.bus.Subscribe(eventbus.TopicTyping)
	delivered := f.bus.Subscribe(eventbus.TopicCompanionMessage)

	if _, err := f.orch.Respond(context.Background(), chat.RespondInput{
		CompanionID: f.luna.ID, Content: "hello", Provider: "gemini",
	}); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	recvTyping := func() chat.TypingEvent {
		t.Helper()
		select {
		case evt := <-typing:
			return evt.Payload.(chat.TypingEvent)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for typing event")
			return chat.TypingEvent{}
		}
	}

	if evt := recvTyping(); !evt.IsTyping || evt.CompanionID != f.luna.ID {
		t.Errorf("first typing event = %+v; want typing on for the companion", evt)
	}
	if evt := recvTyping(); evt.IsTyping {
		t.Errorf("second typing event = %+v; want typing off", evt)
	}

	select {
	case evt := <-delivered:
		msg := evt.Payload.(chat.CompanionMessageEvent)
		if msg.CompanionID != f.luna.ID || msg.Content != "a gemini reply" {
			t.Errorf("companion message event = %+v; want delivered text", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for companion message event")
	}
}
