// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webhookrelay/relay/internal/queue"
	"github.com/webhookrelay/relay/internal/testlib"
	"github.com/webhookrelay/relay/model"
)

type fakeDeliveryStore struct {
	events        map[string]*model.Event
	subscriptions map[string]*model.Subscription
	logs          map[string]*model.DeliveryLog
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{
		events:        map[string]*model.Event{},
		subscriptions: map[string]*model.Subscription{},
		logs:          map[string]*model.DeliveryLog{},
	}
}

func (f *fakeDeliveryStore) GetEvent(id string) (*model.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeDeliveryStore) GetSubscription(id string) (*model.Subscription, error) {
	if s, ok := f.subscriptions[id]; ok {
		return s, nil
	}
	return nil, model.ErrNotFound
}

func (f *fakeDeliveryStore) CreateDeliveryLog(log *model.DeliveryLog) error {
	log.ID = model.NewID()
	log.Status = model.DeliveryPending
	f.logs[log.ID] = log
	return nil
}

func (f *fakeDeliveryStore) FinishDeliveryLog(id string, status model.DeliveryStatus, statusCode *int, body *string, errMsg *string) error {
	log, ok := f.logs[id]
	if !ok {
		return model.ErrNotFound
	}
	log.Status = status
	log.ResponseStatusCode = statusCode
	log.ResponseBody = body
	log.ErrorMessage = errMsg
	return nil
}

func TestDeliveryWorkerSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("X-Signature"))
		require.Equal(t, "user.created", r.Header.Get("X-Event-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	store := newFakeDeliveryStore()
	store.events["evt-1"] = &model.Event{ID: "evt-1", EventType: "user.created", Payload: model.RawJSON(`{}`)}
	store.subscriptions["sub-1"] = &model.Subscription{ID: "sub-1", TargetURL: server.URL, SecretKey: "supersecret", IsActive: true}

	worker := NewDeliveryWorker(store, &http.Client{Timeout: 5 * time.Second}, nil, testlib.MakeLogger(t))

	err := worker.process(context.Background(), &queue.Job{EventID: "evt-1", SubscriptionID: "sub-1", Attempt: 1, MaxAttempts: 3})
	require.NoError(t, err)
	require.Len(t, store.logs, 1)
	for _, log := range store.logs {
		require.Equal(t, model.DeliverySuccess, log.Status)
		require.Equal(t, 200, *log.ResponseStatusCode)
	}
}

func TestDeliveryWorkerFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newFakeDeliveryStore()
	store.events["evt-1"] = &model.Event{ID: "evt-1", EventType: "user.created", Payload: model.RawJSON(`{}`)}
	store.subscriptions["sub-1"] = &model.Subscription{ID: "sub-1", TargetURL: server.URL, SecretKey: "supersecret", IsActive: true}

	worker := NewDeliveryWorker(store, &http.Client{Timeout: 5 * time.Second}, nil, testlib.MakeLogger(t))

	err := worker.process(context.Background(), &queue.Job{EventID: "evt-1", SubscriptionID: "sub-1", Attempt: 1, MaxAttempts: 3})
	require.Error(t, err)
	for _, log := range store.logs {
		require.Equal(t, model.DeliveryFailed, log.Status)
		require.Equal(t, 500, *log.ResponseStatusCode)
	}
}

func TestDeliveryWorkerDropsInactiveSubscription(t *testing.T) {
	store := newFakeDeliveryStore()
	store.events["evt-1"] = &model.Event{ID: "evt-1", EventType: "user.created", Payload: model.RawJSON(`{}`)}
	store.subscriptions["sub-1"] = &model.Subscription{ID: "sub-1", TargetURL: "http://example.invalid", IsActive: false}

	worker := NewDeliveryWorker(store, &http.Client{Timeout: 5 * time.Second}, nil, testlib.MakeLogger(t))

	err := worker.process(context.Background(), &queue.Job{EventID: "evt-1", SubscriptionID: "sub-1", Attempt: 1, MaxAttempts: 3})
	require.NoError(t, err)
	require.Empty(t, store.logs)
}
