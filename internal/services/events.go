package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studytrack-backend/internal/models"
)

// EventChannel is the Redis pub/sub channel the websocket hub subscribes to.
const EventChannel = "session_events"

// JobQueue is the Redis list the worker pool consumes.
const JobQueue = "jobs:queue"

// EventPublisher fans session and log changes out to dashboard clients and
// enqueues background jobs. Both paths are best effort: a Redis outage must
// never fail the request that triggered the event.
type EventPublisher struct {
	queue  *redis.Client
	pubsub *redis.Client
}

func NewEventPublisher(queue, pubsub *redis.Client) *EventPublisher {
	return &EventPublisher{queue: queue, pubsub: pubsub}
}

// Publish broadcasts an event to the websocket feed.
func (p *EventPublisher) Publish(ctx context.Context, event models.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Events: failed to marshal %s event: %v", event.Type, err)
		return
	}

	if err := p.pubsub.Publish(ctx, EventChannel, string(data)).Err(); err != nil {
		log.Printf("Events: failed to publish %s event: %v", event.Type, err)
	}
}

// Enqueue pushes a background job onto the worker queue.
func (p *EventPublisher) Enqueue(ctx context.Context, jobType string, payload json.RawMessage) {
	job := models.Job{ID: uuid.New(), Type: jobType, Payload: payload}

	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("Events: failed to marshal %s job: %v", jobType, err)
		return
	}

	if err := p.queue.RPush(ctx, JobQueue, string(data)).Err(); err != nil {
		log.Printf("Events: failed to enqueue %s job: %v", jobType, err)
	}
}
