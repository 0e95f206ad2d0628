package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

const subjectNotifications = "catalog.notifications"

// Notifier publishes user-visible toast notifications onto the bus, where the
// gateway fans them out to connected clients. Fire and forget: delivery
// problems are logged, never surfaced to the caller.
type Notifier struct {
	conn   *nats.Conn
	logger *logger.Logger
}

func NewNotifier(conn *nats.Conn, log *logger.Logger) *Notifier {
	return &Notifier{conn: conn, logger: log.Named("notifier")}
}

// NewNotifierFromPublisher reuses an existing publisher connection.
func NewNotifierFromPublisher(p *Publisher, log *logger.Logger) *Notifier {
	return NewNotifier(p.conn, log)
}

type notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (n *Notifier) Success(ctx context.Context, message string) {
	n.send(ctx, "success", message)
}

func (n *Notifier) Error(ctx context.Context, message string) {
	n.send(ctx, "error", message)
}

func (n *Notifier) send(_ context.Context, level, message string) {
	data, err := json.Marshal(notification{Level: level, Message: message})
	if err != nil {
		n.logger.Error("marshal notification", zap.Error(err))
		return
	}
	if err := n.conn.Publish(subjectNotifications, data); err != nil {
		n.logger.Error("publish notification", zap.Error(err), zap.String("message", message))
	}
}
