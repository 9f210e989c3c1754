// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package queue is the durable, Redis-backed job queue sitting between the
// ingestion endpoint, the fan-out processor, and the delivery workers.
package queue

import "github.com/webhookrelay/relay/model"

// Topic names the two logical queues the relay dispatches through.
type Topic string

const (
	// TopicFanout carries one job per accepted Event: expand it into N
	// delivery jobs, one per active Subscription for its event type.
	TopicFanout Topic = "fanout"
	// TopicDelivery carries one job per (Event, Subscription) delivery
	// attempt.
	TopicDelivery Topic = "delivery"
)

// Job is the opaque unit of work dispatched through a topic. Only EventID
// and EventType are meaningful to a fanout job; only EventID and
// SubscriptionID are meaningful to a delivery job.
type Job struct {
	ID             string `json:"id"`
	EventID        string `json:"eventId"`
	EventType      string `json:"eventType,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Attempt        int    `json:"attempt"`
	MaxAttempts    int    `json:"maxAttempts"`
}

// newJobID returns a fresh opaque identifier for a Job.
func newJobID() string {
	return model.NewID()
}
