package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestEventPublisherIsNilSafe(t *testing.T) {
	publisher := NewEventPublisher(nil, nil, testLogger())

	// Must not panic without brokers configured.
	publisher.Publish(context.Background(), EventSubmissionSubmitted, 1, 2, 3)
}

func TestEventPublisherFansOutToRedis(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	subscription := client.Subscribe(ctx, "quizdesk:grading")
	t.Cleanup(func() { subscription.Close() })
	_, err := subscription.Receive(ctx)
	require.NoError(t, err)

	publisher := NewEventPublisher(client, nil, testLogger())
	publisher.Publish(ctx, EventSubmissionGraded, 1, 2, 3)

	select {
	case message := <-subscription.Channel():
		var event GradingEvent
		require.NoError(t, json.Unmarshal([]byte(message.Payload), &event))
		require.Equal(t, EventSubmissionGraded, event.Event)
		require.Equal(t, uint(1), event.AssignmentID)
		require.Equal(t, uint(2), event.SubmissionID)
		require.Equal(t, uint(3), event.StudentID)
		require.NotEmpty(t, event.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("no grading event received")
	}
}
