package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"railway/common/metrics"

	"github.com/nats-io/nats.go"
)

// NATS publishes changes on a subject and fans them out to local subscribers
// through one NATS subscription each.
type NATS struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	metrics *metrics.MessagingMetrics
}

func NewNATS(url, subject string, logger *slog.Logger, m *metrics.MessagingMetrics) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("concession-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS change feed initialized", "url", url, "subject", subject)

	return &NATS{
		conn:    nc,
		subject: subject,
		logger:  logger,
		metrics: m,
	}, nil
}

func (n *NATS) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to marshal change", "error", err)
		return err
	}

	start := time.Now()
	err = n.conn.Publish(n.subject, data)
	n.metrics.RecordPublish(ctx, n.subject, time.Since(start), err)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to publish change to NATS", "error", err)
		return err
	}

	n.logger.DebugContext(ctx, "change published", "subject", n.subject, "collection", change.Collection, "id", change.ID)
	return nil
}

func (n *NATS) Subscribe(handler func(Change)) (func(), error) {
	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		var change Change
		err := json.Unmarshal(msg.Data, &change)
		n.metrics.RecordConsume(context.Background(), msg.Subject, err)
		if err != nil {
			n.logger.Error("failed to unmarshal change", "error", err)
			return
		}
		handler(change)
	})
	if err != nil {
		return nil, err
	}
	n.metrics.RecordSubscriptionChange(context.Background(), 1)

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				n.logger.Warn("failed to unsubscribe from NATS", "error", err)
			}
			n.metrics.RecordSubscriptionChange(context.Background(), -1)
		})
	}, nil
}

// HealthCheck verifies NATS connection is healthy
func (n *NATS) HealthCheck() error {
	if n.conn == nil {
		return nats.ErrConnectionClosed
	}
	if !n.conn.IsConnected() {
		return nats.ErrDisconnected
	}
	return nil
}

func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
	return nil
}
