package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Grading lifecycle event names.
const (
	EventSubmissionSubmitted = "submission.submitted"
	EventSubmissionGraded    = "submission.graded"
	EventSubmissionPublished = "submission.published"
)

// GradingEvent is the payload fanned out to brokers when a submission moves
// through its lifecycle.
type GradingEvent struct {
	Source       string    `json:"source"`
	Event        string    `json:"event"`
	AssignmentID uint      `json:"assignment_id"`
	SubmissionID uint      `json:"submission_id"`
	StudentID    uint      `json:"student_id"`
	SentAt       time.Time `json:"sent_at"`
}

// EventPublisher fans grading events out to the configured brokers. Both
// brokers are optional; publishing is best-effort and never fails the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event string, assignmentID, submissionID, studentID uint)
}

type eventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewEventPublisher constructs the broker fan-out. Pass nil clients to run
// without brokers; Publish becomes a no-op.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &eventPublisher{
		redis:        redisClient,
		redisChannel: "quizdesk:grading",
		nats:         natsConn,
		natsSubject:  "quizdesk.grading",
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event string, assignmentID, submissionID, studentID uint) {
	if p.redis == nil && p.nats == nil {
		return
	}

	payload, err := json.Marshal(GradingEvent{
		Source:       p.nodeID,
		Event:        event,
		AssignmentID: assignmentID,
		SubmissionID: submissionID,
		StudentID:    studentID,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode grading event")
		return
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("event", event).Msg("redis publish failed")
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Str("event", event).Msg("nats publish failed")
		}
	}
}
