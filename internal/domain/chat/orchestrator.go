// Package chat orchestrates companion responses: it persists the exchange,
// builds the persona prompt, dispatches to a text provider with fallback,
// and publishes status events for connected viewers.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/auralabs/aura/internal/infra/eventbus"
	"github.com/auralabs/aura/internal/infra/llm"
)

// historyLimit is how many stored messages feed the conversation context block.
const historyLimit = 10

// TypingEvent is published on eventbus.TopicTyping around a generation.
type TypingEvent struct {
	CompanionID string
	IsTyping    bool
}

// CompanionMessageEvent is published on eventbus.TopicCompanionMessage once
// the assistant message is persisted.
type CompanionMessageEvent struct {
	CompanionID string
	Content     string
}

// RespondInput describes one user turn.
type RespondInput struct {
	CompanionID string
	Content     string
	Provider    string
	Temperature float32
	MaxTokens   int
}

// Result is the persisted outcome of a turn. Provider names the adapter
// that produced the text, or the requested provider when the canned
// apology was used.
type Result struct {
	UserMessage      *companion.Message `json:"userMessage"`
	AssistantMessage *companion.Message `json:"assistantMessage"`
	Provider         string             `json:"provider"`
}

// Orchestrator coordinates the full response flow for companions.
// Turns for the same companion are serialized with a per-companion lock so
// concurrent requests cannot interleave their history reads and writes.
type Orchestrator struct {
	companions *companion.Service
	registry   *llm.Registry
	bus        eventbus.EventBus
	log        *zap.Logger
	timeout    time.Duration
	locks      *keyedMutex
}

// NewOrchestrator wires an Orchestrator. timeout bounds each provider
// attempt; zero means no per-attempt bound beyond the caller's context.
func NewOrchestrator(companions *companion.Service, registry *llm.Registry, bus eventbus.EventBus, log *zap.Logger, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		companions: companions,
		registry:   registry,
		bus:        bus,
		log:        log,
		timeout:    timeout,
		locks:      newKeyedMutex(),
	}
}

// Respond runs one user turn end to end: persist the user message, generate
// the companion's reply (requested provider, then the default as fallback,
// then a canned in-persona apology), persist it, and publish chat events.
// Generation failures never surface as errors; persistence failures do.
func (o *Orchestrator) Respond(ctx context.Context, in RespondInput) (*Result, error) {
	comp, err := o.companions.Get(ctx, in.CompanionID)
	if err != nil {
		return nil, err
	}

	unlock := o.locks.lock(in.CompanionID)
	defer unlock()

	// history is read before the new user message lands so the context
	// block and the prompt never repeat the same text
	history, err := o.companions.RecentMessages(ctx, in.CompanionID, historyLimit)
	if err != nil {
		return nil, err
	}

	userMsg, err := o.companions.AppendMessage(ctx, companion.AppendMessageInput{
		CompanionID: in.CompanionID,
		Role:        companion.RoleUser,
		Content:     in.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	o.bus.Publish(eventbus.TopicTyping, TypingEvent{CompanionID: in.CompanionID, IsTyping: true})
	defer o.bus.Publish(eventbus.TopicTyping, TypingEvent{CompanionID: in.CompanionID, IsTyping: false})

	req := llm.GenerateRequest{
		System:      personaSystem(comp),
		Prompt:      contextBlock(comp.Name, history) + in.Content,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	}

	requested := o.registry.Resolve(in.Provider)
	result, genErr := o.generate(ctx, requested, req)
	if genErr != nil {
		o.log.Warn("provider attempt failed",
			zap.String("companion_id", in.CompanionID),
			zap.String("provider", requested.Name()),
			zap.Error(genErr))

		result, genErr = o.generate(ctx, o.registry.Default(), req)
		if genErr != nil {
			o.log.Warn("fallback provider failed",
				zap.String("companion_id", in.CompanionID),
				zap.String("provider", o.registry.DefaultName()),
				zap.Error(genErr))
			result = &llm.GenerateResult{
				Text:     apology(comp.Name),
				Provider: requested.Name(),
			}
		}
	}

	text, imageURL := extractImage(result.Text)

	assistantMsg, err := o.companions.AppendMessage(ctx, companion.AppendMessageInput{
		CompanionID: in.CompanionID,
		Role:        companion.RoleAssistant,
		Content:     text,
		ImageURL:    imageURL,
	})
	if err != nil {
		o.log.Error("persist assistant message failed",
			zap.String("companion_id", in.CompanionID),
			zap.String("generated_text", result.Text),
			zap.Error(err))
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	o.bus.Publish(eventbus.TopicCompanionMessage, CompanionMessageEvent{
		CompanionID: in.CompanionID,
		Content:     text,
	})

	return &Result{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Provider:         result.Provider,
	}, nil
}

func (o *Orchestrator) generate(ctx context.Context, p llm.Provider, req llm.GenerateRequest) (*llm.GenerateResult, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return p.GenerateText(ctx, req)
}

// contextBlock renders the recent history as a prompt preamble, or "" when
// the conversation has no history yet.
func contextBlock(companionName string, history []*companion.Message) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here are the most recent messages in our conversation:\n")
	for _, msg := range history {
		speaker := companionName
		if msg.Role == companion.RoleUser {
			speaker = "Human"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nContinue the conversation as if you are " + companionName + ".\n")
	return b.String()
}

func apology(companionName string) string {
	return fmt.Sprintf("I'm %s, but I'm having trouble connecting to my AI services right now. Could you try again in a moment?", companionName)
}
