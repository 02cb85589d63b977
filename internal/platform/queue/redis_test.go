package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"kaab_hub/internal/domain/model"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob() model.NotificationJob {
	return model.NotificationJob{
		Type:        model.NotificationAnswer,
		RecipientID: "author-1",
		ActorID:     "helper-2",
		ActorName:   "Amina",
		QuestionID:  "q-1",
		Title:       "How do I center a div?",
		EnqueuedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatch_PushesJSON(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewNotificationQueue(rdb, "notifications")

	job := sampleJob()
	payload, err := json.Marshal(job)
	require.NoError(t, err)
	mock.ExpectLPush("notifications", payload).SetVal(1)

	require.NoError(t, q.Dispatch(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_RedisFailure(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewNotificationQueue(rdb, "notifications")

	job := sampleJob()
	payload, _ := json.Marshal(job)
	mock.ExpectLPush("notifications", payload).SetErr(errors.New("connection refused"))

	err := q.Dispatch(context.Background(), job)
	assert.ErrorContains(t, err, "connection refused")
}

func TestPop_DecodesJob(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewNotificationQueue(rdb, "notifications")

	job := sampleJob()
	payload, _ := json.Marshal(job)
	mock.ExpectBRPop(time.Second, "notifications").SetVal([]string{"notifications", string(payload)})

	got, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestPop_EmptyQueue(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewNotificationQueue(rdb, "notifications")

	mock.ExpectBRPop(time.Second, "notifications").SetErr(redis.Nil)

	_, err := q.Pop(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPop_BadPayload(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	q := NewNotificationQueue(rdb, "notifications")

	mock.ExpectBRPop(time.Second, "notifications").SetVal([]string{"notifications", "{not json"})

	_, err := q.Pop(context.Background(), time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmpty)
}
