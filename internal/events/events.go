// Package events wires the service to NATS. The admin application writes
// the same settings records this service serves; its update events drive
// cache invalidation here.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects
const (
	SubjectSettingsUpdated = "widget.settings.updated"
	SubjectEventRecorded   = "widget.event.recorded"
)

// SettingsUpdatedEvent announces that a shop's settings document changed.
type SettingsUpdatedEvent struct {
	ShopDomain string    `json:"shop_domain"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EventRecordedEvent announces an ingested widget analytics event.
type EventRecordedEvent struct {
	ShopDomain string    `json:"shop_domain"`
	SessionID  string    `json:"session_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher handles publishing events to NATS
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// PublishSettingsUpdated emits a settings change notification.
func (p *Publisher) PublishSettingsUpdated(event *SettingsUpdatedEvent) {
	p.publish(SubjectSettingsUpdated, event)
}

// PublishEventRecorded emits an analytics ingest notification.
func (p *Publisher) PublishEventRecorded(event *EventRecordedEvent) {
	p.publish(SubjectEventRecorded, event)
}

// publish is fire-and-forget: a broker failure is logged, never propagated
// into the request path.
func (p *Publisher) publish(subject string, event any) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// SettingsHandler reacts to settings change notifications.
type SettingsHandler interface {
	HandleSettingsUpdated(event *SettingsUpdatedEvent) error
}

// Subscriber handles NATS event subscriptions
type Subscriber struct {
	nc      *nats.Conn
	logger  *zap.Logger
	handler SettingsHandler
	subs    []*nats.Subscription
}

// NewSubscriber creates a new NATS subscriber
func NewSubscriber(nc *nats.Conn, handler SettingsHandler, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		nc:      nc,
		logger:  logger,
		handler: handler,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes to all relevant events
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(SubjectSettingsUpdated, s.handleSettingsUpdated)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("Subscribed to event", zap.String("subject", SubjectSettingsUpdated))
	return nil
}

// Stop unsubscribes from all events
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.logger.Info("NATS subscriber stopped")
}

// handleSettingsUpdated processes settings change notifications
func (s *Subscriber) handleSettingsUpdated(msg *nats.Msg) {
	var event SettingsUpdatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal settings updated event", zap.Error(err))
		return
	}

	s.logger.Info("Received settings updated event", zap.String("shop", event.ShopDomain))

	if err := s.handler.HandleSettingsUpdated(&event); err != nil {
		s.logger.Error("Failed to handle settings updated event",
			zap.String("shop", event.ShopDomain),
			zap.Error(err),
		)
	}
}
