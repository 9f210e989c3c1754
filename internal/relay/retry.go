// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package relay

import (
	"context"

	"github.com/pkg/errors"

	"github.com/webhookrelay/relay/model"
)

type retryStore interface {
	GetDeliveryLog(id string) (*model.DeliveryLog, error)
	GetSubscription(id string) (*model.Subscription, error)
}

// retryQueue is the slice of queue.Queue's API the manual-retry path needs.
type retryQueue interface {
	EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error
}

// Retrier is the admin-triggered manual retry path (part of C7, backed by
// C3): it validates a retry request against the referenced log and
// subscription, then enqueues a fresh delivery job starting again at
// attempt 1. It never mutates the original DeliveryLog row.
type Retrier struct {
	store retryStore
	queue retryQueue
}

// NewRetrier constructs a Retrier.
func NewRetrier(store retryStore, q retryQueue) *Retrier {
	return &Retrier{store: store, queue: q}
}

// Retry re-enqueues delivery for the (event, subscription) pair referenced
// by the DeliveryLog logID.
func (r *Retrier) Retry(ctx context.Context, logID string) error {
	log, err := r.store.GetDeliveryLog(logID)
	if err != nil {
		return err
	}
	if log == nil {
		return model.ErrNotFound
	}

	if log.Status == model.DeliverySuccess {
		return model.ErrInvalidRetry
	}

	subscription, err := r.store.GetSubscription(log.SubscriptionID)
	if err != nil {
		return err
	}
	if subscription == nil {
		return model.ErrSubscriptionNotFound
	}
	if !subscription.IsActive {
		return model.ErrInactiveSubscription
	}

	if err := r.queue.EnqueueDelivery(ctx, log.EventID, log.SubscriptionID); err != nil {
		return errors.Wrap(err, "failed to enqueue retry delivery job")
	}
	return nil
}
