package share

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Notifier delivers share events to whoever tells the receiver about them.
// Delivery is best effort; callers log and drop errors.
type Notifier interface {
	Publish(ctx context.Context, event types.ShareEvent) error
}

var (
	_ Notifier = (*NATSNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSNotifier publishes events as JSON on "<prefix>.<event type>".
type NATSNotifier struct {
	conn   publisher
	prefix string
	logger *slog.Logger
}

func NewNATSNotifier(conn *nats.Conn, prefix string, logger *slog.Logger) *NATSNotifier {
	return newNATSNotifier(conn, prefix, logger)
}

func newNATSNotifier(conn publisher, prefix string, logger *slog.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = "notifications"
	}
	return &NATSNotifier{conn: conn, prefix: prefix, logger: logger}
}

func (n *NATSNotifier) Publish(ctx context.Context, event types.ShareEvent) error {
	subject := n.prefix + "." + event.Type
	_, span := otel.Tracer("ShareNotifier").Start(ctx, "Publish", trace.WithAttributes(
		attribute.String("messaging.system", "nats"),
		attribute.String("messaging.destination.name", subject),
		attribute.String("share.id", event.ShareID.String()),
	))
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode event")
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	msg := nats.NewMsg(subject)
	msg.Header.Set("Event-Type", event.Type)
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = body
	if err := n.conn.PublishMsg(msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Publish failed")
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	n.logger.DebugContext(ctx, "Share event published", slog.String("subject", subject))
	span.SetStatus(codes.Ok, "")
	return nil
}

// LogNotifier is used when no message bus is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, event types.ShareEvent) error {
	n.logger.InfoContext(ctx, "Share event",
		slog.String("type", event.Type),
		slog.String("shareID", event.ShareID.String()),
		slog.String("tripID", event.TripID.String()),
		slog.String("receiver", event.ReceiverEmail))
	return nil
}
