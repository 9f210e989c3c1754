// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "relay:queue"

// Config controls the queue's retry and visibility behavior.
type Config struct {
	// MaxDeliveryAttempts is the total number of delivery attempts
	// (including the first) before a delivery job is abandoned.
	MaxDeliveryAttempts int
	// VisibilityTimeout bounds how long a dequeued job may stay unacked
	// before the reaper considers it stalled and redelivers it.
	VisibilityTimeout time.Duration
	// BaseRetryDelay is the starting point for the exponential backoff
	// applied to failed delivery jobs: attempt n waits ~ BaseRetryDelay * 2^(n-1).
	BaseRetryDelay time.Duration
}

// DefaultConfig mirrors the defaults named in the delivery contract.
func DefaultConfig() Config {
	return Config{
		MaxDeliveryAttempts: 3,
		VisibilityTimeout:   2 * time.Minute,
		BaseRetryDelay:      2 * time.Second,
	}
}

// Queue is a durable job queue backed by Redis. Each topic gets a ready
// list, a delayed-retry sorted set, and an in-flight sorted set used for
// stall detection.
type Queue struct {
	client *redis.Client
	logger logrus.FieldLogger
	config Config
}

// New constructs a Queue over an already-connected redis client.
func New(client *redis.Client, logger logrus.FieldLogger, config Config) *Queue {
	return &Queue{client: client, logger: logger, config: config}
}

func readyKey(topic Topic) string    { return fmt.Sprintf("%s:%s:ready", keyPrefix, topic) }
func delayedKey(topic Topic) string  { return fmt.Sprintf("%s:%s:delayed", keyPrefix, topic) }
func inflightKey(topic Topic) string { return fmt.Sprintf("%s:%s:inflight", keyPrefix, topic) }

// EnqueueFanout places a fan-out job on the fanout topic. Fan-out is
// deliberately single-attempt; the expensive, failure-prone step is the
// delivery jobs it spawns, not the local fan-out itself.
func (q *Queue) EnqueueFanout(ctx context.Context, eventID, eventType string) error {
	job := &Job{
		ID:          newJobID(),
		EventID:     eventID,
		EventType:   eventType,
		Attempt:     1,
		MaxAttempts: 1,
	}
	return q.push(ctx, TopicFanout, job)
}

// EnqueueDelivery places a first-attempt delivery job on the delivery topic.
func (q *Queue) EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error {
	job := &Job{
		ID:             newJobID(),
		EventID:        eventID,
		SubscriptionID: subscriptionID,
		Attempt:        1,
		MaxAttempts:    q.config.MaxDeliveryAttempts,
	}
	return q.push(ctx, TopicDelivery, job)
}

// EnqueueRetry schedules the next attempt of a delivery job after an
// exponential backoff with jitter, landing it on the delayed set rather
// than the ready list.
func (q *Queue) EnqueueRetry(ctx context.Context, job *Job) error {
	next := &Job{
		ID:             newJobID(),
		EventID:        job.EventID,
		SubscriptionID: job.SubscriptionID,
		Attempt:        job.Attempt + 1,
		MaxAttempts:    job.MaxAttempts,
	}

	delay := q.backoff(next.Attempt)
	readyAt := time.Now().Add(delay)

	payload, err := json.Marshal(next)
	if err != nil {
		return errors.Wrap(err, "failed to marshal retry job")
	}

	err = q.client.ZAdd(ctx, delayedKey(TopicDelivery), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		return errors.Wrap(err, "failed to schedule delivery retry")
	}

	q.logger.WithFields(logrus.Fields{
		"event_id":        next.EventID,
		"subscription_id": next.SubscriptionID,
		"attempt":         next.Attempt,
		"ready_at":        readyAt,
	}).Debug("scheduled delivery retry")

	return nil
}

// backoff computes attempt n's delay: BaseRetryDelay * 2^(n-1), jittered,
// matching the contract's "2s, 4s, 8s, ..." progression. Built on
// cenkalti/backoff's ExponentialBackOff rather than hand-rolled math so the
// jitter and growth curve come from the same library the rest of the corpus
// uses for this exact concern.
func (q *Queue) backoff(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.config.BaseRetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (q *Queue) push(ctx context.Context, topic Topic, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to marshal job")
	}
	if err := q.client.RPush(ctx, readyKey(topic), payload).Err(); err != nil {
		return errors.Wrapf(err, "failed to enqueue job on %s", topic)
	}
	return nil
}

// Dequeue blocks (bounded by the context) for the next ready job on topic,
// marking it in-flight with a visibility deadline so the reaper can detect
// a worker that crashes mid-attempt.
func (q *Queue) Dequeue(ctx context.Context, topic Topic, blockFor time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, blockFor, readyKey(topic)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dequeue from %s", topic)
	}

	// result[0] is the key name, result[1] is the payload.
	payload := result[1]

	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal dequeued job")
	}

	deadline := time.Now().Add(q.config.VisibilityTimeout)
	if err := q.client.ZAdd(ctx, inflightKey(topic), redis.Z{
		Score:  float64(deadline.UnixMilli()),
		Member: payload,
	}).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to mark job in-flight on %s", topic)
	}

	return &job, nil
}

// Depth reports the number of jobs currently waiting on topic's ready list,
// for the queue-depth gauge.
func (q *Queue) Depth(ctx context.Context, topic Topic) (int64, error) {
	depth, err := q.client.LLen(ctx, readyKey(topic)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to measure queue depth on %s", topic)
	}
	return depth, nil
}

// Ack removes a completed job from the in-flight set, signaling the reaper
// should not redeliver it.
func (q *Queue) Ack(ctx context.Context, topic Topic, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to marshal job for ack")
	}
	if err := q.client.ZRem(ctx, inflightKey(topic), payload).Err(); err != nil {
		return errors.Wrapf(err, "failed to ack job on %s", topic)
	}
	return nil
}

// PromoteDue moves any delayed retry jobs whose scheduled time has arrived
// onto the ready list.
func (q *Queue) PromoteDue(ctx context.Context, topic Topic) (int, error) {
	now := float64(time.Now().UnixMilli())

	due, err := q.client.ZRangeByScore(ctx, delayedKey(topic), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to scan delayed jobs on %s", topic)
	}

	promoted := 0
	for _, payload := range due {
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, delayedKey(topic), payload)
		pipe.RPush(ctx, readyKey(topic), payload)
		if _, err := pipe.Exec(ctx); err != nil {
			q.logger.WithError(err).Warn("failed to promote delayed job")
			continue
		}
		promoted++
	}

	return promoted, nil
}

// ReapStalled redelivers jobs whose visibility deadline has passed without
// an ack: the worker that leased them is presumed dead or wedged.
func (q *Queue) ReapStalled(ctx context.Context, topic Topic) (int, error) {
	now := float64(time.Now().UnixMilli())

	stalled, err := q.client.ZRangeByScore(ctx, inflightKey(topic), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to scan in-flight jobs on %s", topic)
	}

	reaped := 0
	for _, payload := range stalled {
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, inflightKey(topic), payload)
		pipe.RPush(ctx, readyKey(topic), payload)
		if _, err := pipe.Exec(ctx); err != nil {
			q.logger.WithError(err).Warn("failed to reap stalled job")
			continue
		}
		reaped++
		q.logger.WithField("topic", topic).Warn("redelivered stalled job")
	}

	return reaped, nil
}
