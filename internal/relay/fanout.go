// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package relay

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/webhookrelay/relay/internal/queue"
	"github.com/webhookrelay/relay/model"
)

type fanoutStore interface {
	ListActiveSubscriptions(eventType string) ([]*model.Subscription, error)
}

// fanoutQueue is the slice of queue.Queue's API the fan-out processor
// needs: enough to enqueue per-subscriber delivery jobs.
type fanoutQueue interface {
	EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error
}

// fanoutMetrics is the slice of metrics.RelayMetrics the fan-out processor
// reports to. Satisfied by *metrics.RelayMetrics; may be nil.
type fanoutMetrics interface {
	ObserveFanoutDuration(elapsed time.Duration)
}

// FanoutProcessor is C5: it resolves the active subscribers for an
// event's type and enqueues one delivery job per subscriber.
type FanoutProcessor struct {
	store   fanoutStore
	queue   fanoutQueue
	metrics fanoutMetrics
	logger  logrus.FieldLogger
}

// NewFanoutProcessor constructs a FanoutProcessor. metrics may be nil to
// skip instrumentation.
func NewFanoutProcessor(store fanoutStore, q fanoutQueue, metrics fanoutMetrics, logger logrus.FieldLogger) *FanoutProcessor {
	return &FanoutProcessor{store: store, queue: q, metrics: metrics, logger: logger.WithField("component", "fanout")}
}

// Handler adapts FanoutProcessor to queue.Handler.
func (f *FanoutProcessor) Handler() queue.Handler {
	return f.process
}

func (f *FanoutProcessor) process(ctx context.Context, job *queue.Job) error {
	start := time.Now()
	defer func() {
		if f.metrics != nil {
			f.metrics.ObserveFanoutDuration(time.Since(start))
		}
	}()

	log := f.logger.WithFields(logrus.Fields{
		"event_id":   job.EventID,
		"event_type": job.EventType,
	})

	subscriptions, err := f.store.ListActiveSubscriptions(job.EventType)
	if err != nil {
		return errors.Wrap(err, "failed to list active subscriptions")
	}

	if len(subscriptions) == 0 {
		log.Debug("no active subscribers for event type")
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, sub := range subscriptions {
		wg.Add(1)
		go func(sub *model.Subscription) {
			defer wg.Done()
			if enqueueErr := f.queue.EnqueueDelivery(ctx, job.EventID, sub.ID); enqueueErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = enqueueErr
				}
				mu.Unlock()
				log.WithField("subscription_id", sub.ID).WithError(enqueueErr).Error("failed to enqueue delivery job")
			}
		}(sub)
	}
	wg.Wait()

	if firstErr != nil {
		return errors.Wrap(firstErr, "one or more delivery enqueues failed")
	}

	log.WithField("subscriber_count", len(subscriptions)).Debug("fan-out complete")
	return nil
}
