package ws

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/auralabs/aura/internal/domain/chat"
	"github.com/auralabs/aura/internal/infra/eventbus"
)

// Wire frames pushed to browsers.
type typingFrame struct {
	Type        string `json:"type"`
	CompanionID string `json:"companionId"`
	IsTyping    bool   `json:"isTyping"`
}

type companionMessageFrame struct {
	Type        string `json:"type"`
	CompanionID string `json:"companionId"`
	Content     string `json:"content"`
}

// Notifier bridges chat events from the in-memory bus to the hub.
type Notifier struct {
	hub *Hub
	bus eventbus.EventBus
	log *zap.Logger
}

// NewNotifier creates a Notifier over hub and bus.
func NewNotifier(hub *Hub, bus eventbus.EventBus, log *zap.Logger) *Notifier {
	return &Notifier{hub: hub, bus: bus, log: log}
}

// Run forwards bus events as JSON frames until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	typing := n.bus.Subscribe(eventbus.TopicTyping)
	delivered := n.bus.Subscribe(eventbus.TopicCompanionMessage)

	for {
		select {
		case evt := <-typing:
			payload, ok := evt.Payload.(chat.TypingEvent)
			if !ok {
				continue
			}
			n.send(typingFrame{
				Type:        "typing_indicator",
				CompanionID: payload.CompanionID,
				IsTyping:    payload.IsTyping,
			})

		case evt := <-delivered:
			payload, ok := evt.Payload.(chat.CompanionMessageEvent)
			if !ok {
				continue
			}
			n.send(companionMessageFrame{
				Type:        "companion_message",
				CompanionID: payload.CompanionID,
				Content:     payload.Content,
			})

		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) send(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		n.log.Error("marshal websocket frame", zap.Error(err))
		return
	}
	n.hub.Broadcast(data)
}
