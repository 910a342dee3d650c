package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	mockrepository "uptime_pinger/internal/monitor/mock/repository"
	"uptime_pinger/internal/monitor/model"
	"uptime_pinger/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var (
	fixedNow    = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mockServers = []model.Server{
		{ID: "server-1", OwnerID: "owner-1", URL: "http://a.example"},
		{ID: "server-2", OwnerID: "owner-1", URL: "http://b.example"},
		{ID: "server-3", OwnerID: "owner-2", URL: "http://c.example"},
	}
	jobOpts = queue.JobOptions{
		Attempts: 3,
		Backoff:  queue.Backoff{Type: queue.BackoffExponential, Delay: time.Second, Multiplier: 2},
	}
)

func newTestDispatcher(ctrl *gomock.Controller) (*dispatcher, *mockrepository.MockServerRepository, *queue.MockQueue) {
	mockRepo := mockrepository.NewMockServerRepository(ctrl)
	mockQueue := queue.NewMockQueue(ctrl)
	d := NewDispatcher(zap.NewNop(), mockRepo, mockQueue, Options{JobOpts: jobOpts}).(*dispatcher)
	d.now = func() time.Time { return fixedNow }
	return d, mockRepo, mockQueue
}

func TestDispatcher_RunDispatchCycle(t *testing.T) {
	testCases := []struct {
		name           string
		setupMocks     func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue)
		expectedResult CycleResult
		expectErr      bool
	}{
		{
			name: "Success Enqueue all due servers",
			setupMocks: func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue) {
				gomock.InOrder(
					mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return(mockServers, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-1", gomock.Any(), jobOpts).Return(true, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-2", gomock.Any(), jobOpts).Return(true, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-3", gomock.Any(), jobOpts).Return(true, nil),
				)
			},
			expectedResult: CycleResult{Due: 3, Enqueued: 3},
		},
		{
			name: "Success Duplicates are counted not failed",
			setupMocks: func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue) {
				gomock.InOrder(
					mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return(mockServers, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-1", gomock.Any(), jobOpts).Return(false, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-2", gomock.Any(), jobOpts).Return(true, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-3", gomock.Any(), jobOpts).Return(false, nil),
				)
			},
			expectedResult: CycleResult{Due: 3, Enqueued: 1, Duplicates: 2},
		},
		{
			name: "Success Enqueue failure does not stop the cycle",
			setupMocks: func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue) {
				gomock.InOrder(
					mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return(mockServers, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-1", gomock.Any(), jobOpts).Return(true, nil),
					mockQueue.EXPECT().Add(gomock.Any(), "server-2", gomock.Any(), jobOpts).Return(false, errors.New("redis timeout")),
					mockQueue.EXPECT().Add(gomock.Any(), "server-3", gomock.Any(), jobOpts).Return(true, nil),
				)
			},
			expectedResult: CycleResult{Due: 3, Enqueued: 2, Failed: 1},
		},
		{
			name: "Success No due servers",
			setupMocks: func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue) {
				mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return([]model.Server{}, nil)
			},
			expectedResult: CycleResult{},
		},
		{
			name: "Failure Store query error aborts the cycle",
			setupMocks: func(mockRepo *mockrepository.MockServerRepository, mockQueue *queue.MockQueue) {
				mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return(nil, errors.New("db connection failed"))
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			d, mockRepo, mockQueue := newTestDispatcher(ctrl)
			tc.setupMocks(mockRepo, mockQueue)

			result, err := d.RunDispatchCycle(context.Background())

			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expectedResult, result)
			assert.False(t, d.running.Load())
		})
	}
}

func TestDispatcher_RunDispatchCycle_JobPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, mockRepo, mockQueue := newTestDispatcher(ctrl)
	var payload []byte
	mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).Return(mockServers[:1], nil)
	mockQueue.EXPECT().Add(gomock.Any(), "server-1", gomock.Any(), jobOpts).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ queue.JobOptions) (bool, error) {
			payload = data
			return true, nil
		})

	_, err := d.RunDispatchCycle(context.Background())
	require.NoError(t, err)

	var job model.PingJob
	require.NoError(t, json.Unmarshal(payload, &job))
	assert.Equal(t, model.PingJob{ServerID: "server-1", URL: "http://a.example", OwnerID: "owner-1"}, job)
}

func TestDispatcher_RunDispatchCycle_SkipsWhileRunning(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, _, _ := newTestDispatcher(ctrl)
	d.running.Store(true)

	result, err := d.RunDispatchCycle(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, CycleResult{Skipped: true}, result)
	assert.True(t, d.running.Load())
}

func TestDispatcher_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d, mockRepo, _ := newTestDispatcher(ctrl)
	d.opts.Interval = time.Hour
	called := make(chan struct{}, 1)
	mockRepo.EXPECT().GetDueServers(gomock.Any(), fixedNow).DoAndReturn(func(_ context.Context, _ time.Time) ([]model.Server, error) {
		called <- struct{}{}
		return nil, nil
	})

	require.NoError(t, d.Start())
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run on start")
	}
	d.Stop()
}
