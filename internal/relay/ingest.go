// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package relay implements the core event pipeline: ingestion, fan-out,
// and delivery.
package relay

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/webhookrelay/relay/model"
)

type ingestStore interface {
	CreateEvent(event *model.Event) error
	GetEventByIdempotencyKey(idempotencyKey string) (*model.Event, error)
}

// ingestQueue is the slice of queue.Queue's API the ingestor needs: enough
// to enqueue a fan-out job, nothing more.
type ingestQueue interface {
	EnqueueFanout(ctx context.Context, eventID, eventType string) error
}

// ingestMetrics is the slice of metrics.RelayMetrics the ingestor reports
// to. Satisfied by *metrics.RelayMetrics; may be nil.
type ingestMetrics interface {
	IncrementEventIngested()
	IncrementEventDuplicate()
}

// Ingestor is C4: it validates and persists incoming events and enqueues
// the fan-out job that will expand them to subscribers.
type Ingestor struct {
	store   ingestStore
	queue   ingestQueue
	metrics ingestMetrics
	logger  logrus.FieldLogger
}

// NewIngestor constructs an Ingestor. metrics may be nil to skip
// instrumentation.
func NewIngestor(store ingestStore, q ingestQueue, metrics ingestMetrics, logger logrus.FieldLogger) *Ingestor {
	return &Ingestor{store: store, queue: q, metrics: metrics, logger: logger.WithField("component", "ingestor")}
}

// Ingest persists req as a new Event, or returns the previously stored
// Event if its idempotency key was already seen (reported via the bool
// return). Fan-out is enqueued only on first sighting.
func (i *Ingestor) Ingest(ctx context.Context, idempotencyKey string, req *model.IngestEventRequest) (*model.Event, bool, error) {
	event := &model.Event{
		IdempotencyKey: idempotencyKey,
		EventType:      req.EventType,
		Payload:        req.Payload,
		ReceivedAt:     model.GetMillis(),
	}

	err := i.store.CreateEvent(event)
	if err == nil {
		if i.metrics != nil {
			i.metrics.IncrementEventIngested()
		}
		if enqueueErr := i.queue.EnqueueFanout(ctx, event.ID, event.EventType); enqueueErr != nil {
			// The event is already durable; losing the fan-out enqueue is a
			// recoverable inconsistency, not a failure to report to the
			// producer.
			i.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.EventType,
			}).WithError(enqueueErr).Error("event stored but fan-out enqueue failed")
		}
		return event, false, nil
	}

	if errors.Is(err, model.ErrDuplicateIdempotencyKey) {
		if i.metrics != nil {
			i.metrics.IncrementEventDuplicate()
		}
		existing, getErr := i.store.GetEventByIdempotencyKey(idempotencyKey)
		if getErr != nil {
			return nil, false, errors.Wrap(getErr, "failed to load event after duplicate idempotency key")
		}
		if existing == nil {
			return nil, false, errors.New("duplicate idempotency key reported but no event found")
		}
		return existing, true, nil
	}

	return nil, false, errors.Wrap(err, "failed to create event")
}
