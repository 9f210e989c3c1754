// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webhookrelay/relay/model"
)

type fakeRetryStore struct {
	logs          map[string]*model.DeliveryLog
	subscriptions map[string]*model.Subscription
}

func (f *fakeRetryStore) GetDeliveryLog(id string) (*model.DeliveryLog, error) {
	if log, ok := f.logs[id]; ok {
		return log, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeRetryStore) GetSubscription(id string) (*model.Subscription, error) {
	if sub, ok := f.subscriptions[id]; ok {
		return sub, nil
	}
	return nil, model.ErrNotFound
}

type fakeRetryQueue struct {
	enqueued bool
}

func (f *fakeRetryQueue) EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error {
	f.enqueued = true
	return nil
}

func TestRetrierRejectsSuccessfulLog(t *testing.T) {
	store := &fakeRetryStore{
		logs: map[string]*model.DeliveryLog{
			"log-1": {ID: "log-1", Status: model.DeliverySuccess, SubscriptionID: "sub-1"},
		},
		subscriptions: map[string]*model.Subscription{
			"sub-1": {ID: "sub-1", IsActive: true},
		},
	}
	q := &fakeRetryQueue{}
	retrier := NewRetrier(store, q)

	err := retrier.Retry(context.Background(), "log-1")
	require.ErrorIs(t, err, model.ErrInvalidRetry)
	require.False(t, q.enqueued)
}

func TestRetrierRejectsInactiveSubscription(t *testing.T) {
	store := &fakeRetryStore{
		logs: map[string]*model.DeliveryLog{
			"log-1": {ID: "log-1", Status: model.DeliveryFailed, SubscriptionID: "sub-1"},
		},
		subscriptions: map[string]*model.Subscription{
			"sub-1": {ID: "sub-1", IsActive: false},
		},
	}
	q := &fakeRetryQueue{}
	retrier := NewRetrier(store, q)

	err := retrier.Retry(context.Background(), "log-1")
	require.ErrorIs(t, err, model.ErrInactiveSubscription)
	require.False(t, q.enqueued)
}

func TestRetrierEnqueuesFreshDelivery(t *testing.T) {
	store := &fakeRetryStore{
		logs: map[string]*model.DeliveryLog{
			"log-1": {ID: "log-1", EventID: "evt-1", Status: model.DeliveryFailed, SubscriptionID: "sub-1"},
		},
		subscriptions: map[string]*model.Subscription{
			"sub-1": {ID: "sub-1", IsActive: true},
		},
	}
	q := &fakeRetryQueue{}
	retrier := NewRetrier(store, q)

	err := retrier.Retry(context.Background(), "log-1")
	require.NoError(t, err)
	require.True(t, q.enqueued)
}
