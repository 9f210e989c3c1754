// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webhookrelay/relay/model"
)

// Store describes the persistence operations the API layer needs from C2.
type Store interface {
	CreateEvent(event *model.Event) error
	GetEvent(id string) (*model.Event, error)
	GetEventByIdempotencyKey(idempotencyKey string) (*model.Event, error)
	GetDeliveryLogsForEvent(eventID string) ([]*model.DeliveryLog, error)

	CreateSubscription(sub *model.Subscription) error
	GetSubscription(id string) (*model.Subscription, error)
	GetSubscriptions(filter *model.SubscriptionsFilter) ([]*model.Subscription, error)
	UpdateSubscription(id string, patch *model.UpdateSubscriptionRequest) (*model.Subscription, error)
	DeleteSubscription(id string) error

	GetDeliveryLog(id string) (*model.DeliveryLog, error)
	GetDeliveryLogs(filter *model.DeliveryLogFilter) ([]*model.DeliveryLog, error)

	GetStats() (*model.Stats, error)
}

// Queue describes the subset of the durable job queue the API layer needs:
// enqueuing fan-out jobs and delivery jobs.
type Queue interface {
	EnqueueFanout(ctx context.Context, eventID, eventType string) error
	EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error
}

// Metrics describes the instrumentation hooks the request handler wrapper
// drives on every request.
type Metrics interface {
	ObserveAPIEndpointDuration(handler, method string, statusCode int, elapsed time.Duration)
	IncrementAPIRequest(handler, method string, statusCode int)
}

// Ingestor is the narrow relay.Ingestor surface the ingestion handler
// drives; kept as an interface so the handler doesn't need to know about
// the queue wiring underneath it. The returned bool reports whether the
// idempotency key had already been seen.
type Ingestor interface {
	Ingest(ctx context.Context, idempotencyKey string, req *model.IngestEventRequest) (*model.Event, bool, error)
}

// Retrier is the narrow relay.Retrier surface the admin retry handler drives.
type Retrier interface {
	Retry(ctx context.Context, logID string) error
}

// Context provides API handlers with everything needed to service a
// request. It is cloned before each request so per-request fields like
// RequestID and Logger don't leak across requests.
type Context struct {
	Store    Store
	Queue    Queue
	Ingestor Ingestor
	Retrier  Retrier
	Metrics  Metrics

	RequestID string
	Logger    logrus.FieldLogger
}

// Clone creates a shallow copy of context, allowing clones to apply
// per-request changes without racing the shared Context.
func (c *Context) Clone() *Context {
	return &Context{
		Store:    c.Store,
		Queue:    c.Queue,
		Ingestor: c.Ingestor,
		Retrier:  c.Retrier,
		Metrics:  c.Metrics,
		Logger:   c.Logger,
	}
}
