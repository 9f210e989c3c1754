// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webhookrelay/relay/internal/testlib"
	"github.com/webhookrelay/relay/model"
)

func seedEventAndSubscription(t *testing.T, sqlStore *SQLStore) (*model.Event, *model.Subscription) {
	event := &model.Event{
		IdempotencyKey: model.NewID(),
		EventType:      "order.paid",
		Payload:        model.RawJSON(`{"x":1}`),
		ReceivedAt:     model.GetMillis(),
	}
	require.NoError(t, sqlStore.CreateEvent(event))

	sub := &model.Subscription{EventType: "order.paid", TargetURL: "http://sink/a", SecretKey: "s1", IsActive: true}
	require.NoError(t, sqlStore.CreateSubscription(sub))

	return event, sub
}

func TestCreateAndFinishDeliveryLog(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)
	event, sub := seedEventAndSubscription(t, sqlStore)

	log := &model.DeliveryLog{EventID: event.ID, SubscriptionID: sub.ID, AttemptCount: 1}
	require.NoError(t, sqlStore.CreateDeliveryLog(log))
	require.Equal(t, model.DeliveryPending, log.Status)

	code := 200
	body := "ok"
	require.NoError(t, sqlStore.FinishDeliveryLog(log.ID, model.DeliverySuccess, &code, &body, nil))

	fetched, err := sqlStore.GetDeliveryLog(log.ID)
	require.NoError(t, err)
	require.Equal(t, model.DeliverySuccess, fetched.Status)
	require.Equal(t, 200, *fetched.ResponseStatusCode)
}

func TestFinishDeliveryLogNotPending(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)
	event, sub := seedEventAndSubscription(t, sqlStore)

	log := &model.DeliveryLog{EventID: event.ID, SubscriptionID: sub.ID, AttemptCount: 1}
	require.NoError(t, sqlStore.CreateDeliveryLog(log))

	code := 200
	require.NoError(t, sqlStore.FinishDeliveryLog(log.ID, model.DeliverySuccess, &code, nil, nil))

	err := sqlStore.FinishDeliveryLog(log.ID, model.DeliveryFailed, nil, nil, nil)
	require.ErrorIs(t, err, model.ErrIllegalTransition)
}

func TestGetDeliveryLogsForEventOrdering(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)
	event, sub := seedEventAndSubscription(t, sqlStore)

	for attempt := 1; attempt <= 3; attempt++ {
		log := &model.DeliveryLog{EventID: event.ID, SubscriptionID: sub.ID, AttemptCount: attempt}
		require.NoError(t, sqlStore.CreateDeliveryLog(log))
		require.NoError(t, sqlStore.FinishDeliveryLog(log.ID, model.DeliveryFailed, nil, nil, nil))
	}

	logs, err := sqlStore.GetDeliveryLogsForEvent(event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for i := 1; i < len(logs); i++ {
		require.GreaterOrEqual(t, logs[i-1].AttemptedAt, logs[i].AttemptedAt)
	}
}

func TestCountDeadLetters(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)
	event, sub := seedEventAndSubscription(t, sqlStore)

	log := &model.DeliveryLog{EventID: event.ID, SubscriptionID: sub.ID, AttemptCount: 1}
	require.NoError(t, sqlStore.CreateDeliveryLog(log))
	require.NoError(t, sqlStore.FinishDeliveryLog(log.ID, model.DeliveryFailed, nil, nil, nil))

	count, err := sqlStore.CountDeadLetters()
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	retry := &model.DeliveryLog{EventID: event.ID, SubscriptionID: sub.ID, AttemptCount: 2}
	require.NoError(t, sqlStore.CreateDeliveryLog(retry))
	code := 200
	require.NoError(t, sqlStore.FinishDeliveryLog(retry.ID, model.DeliverySuccess, &code, nil, nil))

	count, err = sqlStore.CountDeadLetters()
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
