package ping_worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"uptime_pinger/pkg/infra"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestKafkaEventPublisher_Publish(t *testing.T) {
	event := PingEvent{
		ServerID:            "server-1",
		Success:             false,
		ResponseTimeMs:      5000,
		ConsecutiveFailures: 4,
		AlertCreated:        true,
		Timestamp:           time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name      string
		mock      func(mockKafka *infra.MockKafkaWriter)
		expectErr bool
	}{
		{
			name: "Success message keyed by server id",
			mock: func(mockKafka *infra.MockKafkaWriter) {
				mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
						require.Len(t, msgs, 1)
						assert.Equal(t, []byte("server-1"), msgs[0].Key)
						var got map[string]any
						require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
						assert.Equal(t, "server-1", got["server_id"])
						assert.Equal(t, true, got["alert_created"])
						assert.Equal(t, float64(4), got["consecutive_failures"])
						assert.Nil(t, got["status_code"])
						return nil
					})
			},
		},
		{
			name: "Failure kafka write error",
			mock: func(mockKafka *infra.MockKafkaWriter) {
				mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("kafka is down"))
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockKafka := infra.NewMockKafkaWriter(ctrl)
			tc.mock(mockKafka)

			err := NewKafkaEventPublisher(mockKafka).Publish(context.Background(), event)

			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoopEventPublisher(t *testing.T) {
	p := NewNoopEventPublisher()
	assert.NoError(t, p.Publish(context.Background(), PingEvent{ServerID: "server-1"}))
	assert.NoError(t, p.Close())
}
