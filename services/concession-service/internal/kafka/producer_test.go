package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"railway/common/metrics"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/kafka"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_PublishEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("KeyedByProfileID", func(t *testing.T) {
		mock := mocks.NewSyncProducer(t, kafka.NewConfig())
		defer func() { _ = mock.Close() }()

		at := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
		event := concession.Event{
			Type:    concession.EventServiced,
			ID:      "stu-1",
			Status:  concession.StatusServiced,
			PassNum: "CERT-42",
			At:      at,
		}

		mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			assert.Equal(t, "concession-lifecycle", msg.Topic)

			key, err := msg.Key.Encode()
			require.NoError(t, err)
			assert.Equal(t, "stu-1", string(key))

			value, err := msg.Value.Encode()
			require.NoError(t, err)
			var decoded concession.Event
			require.NoError(t, json.Unmarshal(value, &decoded))
			assert.Equal(t, event.Type, decoded.Type)
			assert.Equal(t, event.PassNum, decoded.PassNum)
			assert.True(t, at.Equal(decoded.At))
			return nil
		})

		producer := kafka.NewWithSyncProducer(mock, "concession-lifecycle", logger, metrics.NewMock().Messaging)
		require.NoError(t, producer.PublishEvent(context.Background(), event))
	})

	t.Run("BrokerFailure", func(t *testing.T) {
		mock := mocks.NewSyncProducer(t, kafka.NewConfig())
		defer func() { _ = mock.Close() }()

		brokerErr := errors.New("leader not available")
		mock.ExpectSendMessageAndFail(brokerErr)

		producer := kafka.NewWithSyncProducer(mock, "concession-lifecycle", logger, metrics.NewMock().Messaging)
		err := producer.PublishEvent(context.Background(), concession.Event{ID: "stu-2"})
		assert.ErrorIs(t, err, brokerErr)
	})
}
