// Package simnotify publishes realtime updates and event log entries on watermill topics.
package simnotify

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	simdomain "github.com/Black-And-White-Club/league-sim/app/modules/sim/domain"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/time/rate"
)

const (
	// TopicRealtime carries simdomain.RealtimeUpdate payloads.
	TopicRealtime = "sim.realtime"
	// TopicEvents carries simdomain.Event payloads.
	TopicEvents = "sim.events"
)

// Notifier publishes realtime updates. Plain updates are throttled by limiter; those
// dropped are merged into the next one that goes out. Status changes and play-by-play are
// never held back.
type Notifier struct {
	pub     message.Publisher
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.Mutex
	pending []string
}

// NewNotifier creates a Notifier. A nil limiter disables throttling.
func NewNotifier(pub message.Publisher, limiter *rate.Limiter, logger *slog.Logger) *Notifier {
	return &Notifier{
		pub:     pub,
		limiter: limiter,
		logger:  logger,
	}
}

// RealtimeUpdate never fails the caller; publish errors are logged.
func (n *Notifier) RealtimeUpdate(ctx context.Context, update simdomain.RealtimeUpdate) {
	n.mu.Lock()
	for _, u := range update.Updates {
		if !slices.Contains(n.pending, u) {
			n.pending = append(n.pending, u)
		}
	}
	urgent := update.Status != "" || update.LiveGameID != nil
	if !urgent && n.limiter != nil && !n.limiter.Allow() {
		n.mu.Unlock()
		return
	}
	update.Updates = n.pending
	n.pending = nil
	n.mu.Unlock()

	if err := publishJSON(n.pub, TopicRealtime, update); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish realtime update",
			slog.Any("updates", update.Updates),
			slog.Any("error", err),
		)
	}
}

// EventLog publishes league events.
type EventLog struct {
	pub    message.Publisher
	logger *slog.Logger
}

// NewEventLog creates an EventLog.
func NewEventLog(pub message.Publisher, logger *slog.Logger) *EventLog {
	return &EventLog{pub: pub, logger: logger}
}

// LogEvent never fails the caller; publish errors are logged.
func (l *EventLog) LogEvent(ctx context.Context, ev simdomain.Event) {
	if err := publishJSON(l.pub, TopicEvents, ev); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish event",
			slog.String("event_type", string(ev.Type)),
			slog.String("event_id", ev.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	l.logger.DebugContext(ctx, "Event published",
		slog.String("event_type", string(ev.Type)),
		slog.String("text", ev.Text),
	)
}

func publishJSON(pub message.Publisher, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	return pub.Publish(topic, msg)
}
