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

func TestCreateEvent(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)

	event := &model.Event{
		IdempotencyKey: "k1",
		EventType:      "user.created",
		Payload:        model.RawJSON(`{"x":1}`),
		ReceivedAt:     model.GetMillis(),
	}

	err := sqlStore.CreateEvent(event)
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)

	fetched, err := sqlStore.GetEvent(event.ID)
	require.NoError(t, err)
	require.Equal(t, event.IdempotencyKey, fetched.IdempotencyKey)
	require.Equal(t, event.EventType, fetched.EventType)
}

func TestCreateEventDuplicateIdempotencyKey(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)

	first := &model.Event{
		IdempotencyKey: "dup-key",
		EventType:      "user.created",
		Payload:        model.RawJSON(`{"x":1}`),
		ReceivedAt:     model.GetMillis(),
	}
	require.NoError(t, sqlStore.CreateEvent(first))

	second := &model.Event{
		IdempotencyKey: "dup-key",
		EventType:      "user.created",
		Payload:        model.RawJSON(`{"x":2}`),
		ReceivedAt:     model.GetMillis(),
	}
	err := sqlStore.CreateEvent(second)
	require.ErrorIs(t, err, model.ErrDuplicateIdempotencyKey)
	require.Equal(t, first.ID, second.ID)
}

func TestGetEventNotFound(t *testing.T) {
	logger := testlib.MakeLogger(t)
	sqlStore := MakeTestSQLStore(t, logger)

	event, err := sqlStore.GetEvent(model.NewID())
	require.NoError(t, err)
	require.Nil(t, event)
}
