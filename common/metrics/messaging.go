package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type MessagingMetrics struct {
	messagesPublished   metric.Int64Counter
	messagesConsumed    metric.Int64Counter
	messageErrors       metric.Int64Counter
	publishDuration     metric.Float64Histogram
	subscriptionsActive metric.Int64UpDownCounter
}

func NewMessagingMetrics(meter metric.Meter) (*MessagingMetrics, error) {
	mm := &MessagingMetrics{}

	var err error

	mm.messagesPublished, err = meter.Int64Counter(
		"messaging.messages.published",
		metric.WithDescription("Total number of messages published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	mm.messagesConsumed, err = meter.Int64Counter(
		"messaging.messages.consumed",
		metric.WithDescription("Total number of messages consumed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	mm.messageErrors, err = meter.Int64Counter(
		"messaging.message.errors",
		metric.WithDescription("Total number of publish or consume failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	mm.publishDuration, err = meter.Float64Histogram(
		"messaging.message.publish_duration",
		metric.WithDescription("Time spent publishing a message"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	mm.subscriptionsActive, err = meter.Int64UpDownCounter(
		"messaging.subscriptions.active",
		metric.WithDescription("Current number of open subscriptions"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return nil, err
	}

	return mm, nil
}

func (mm *MessagingMetrics) RecordPublish(ctx context.Context, subject string, duration time.Duration, err error) {
	if mm == nil || mm.messagesPublished == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("subject", subject))
	mm.messagesPublished.Add(ctx, 1, attrs)
	mm.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		mm.messageErrors.Add(ctx, 1, attrs)
	}
}

func (mm *MessagingMetrics) RecordConsume(ctx context.Context, subject string, err error) {
	if mm == nil || mm.messagesConsumed == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("subject", subject))
	mm.messagesConsumed.Add(ctx, 1, attrs)
	if err != nil {
		mm.messageErrors.Add(ctx, 1, attrs)
	}
}

func (mm *MessagingMetrics) RecordSubscriptionChange(ctx context.Context, delta int64) {
	if mm == nil || mm.subscriptionsActive == nil {
		return
	}
	mm.subscriptionsActive.Add(ctx, delta)
}
