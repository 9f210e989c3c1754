// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webhookrelay/relay/internal/store"
	"github.com/webhookrelay/relay/internal/testlib"
	"github.com/webhookrelay/relay/model"
)

func TestIngestEventRequiresIdempotencyKey(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	body, err := json.Marshal(model.IngestEventRequest{EventType: "order.paid", Payload: model.RawJSON(`{}`)})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestAndGetEvent(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	body, err := json.Marshal(model.IngestEventRequest{EventType: "order.paid", Payload: model.RawJSON(`{"amount":5}`)})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/events", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Idempotency-Key", "key-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ingested model.EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ingested))
	require.NotEmpty(t, ingested.ID)
	require.False(t, ingested.Duplicate)

	// Replaying the same idempotency key returns the original event.
	req2, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/events", bytes.NewReader(body))
	require.NoError(t, err)
	req2.Header.Set("X-Idempotency-Key", "key-1")

	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusAccepted, resp2.StatusCode)

	var replayed model.EventResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&replayed))
	require.Equal(t, ingested.ID, replayed.ID)
	require.True(t, replayed.Duplicate)

	getResp, err := http.Get(ts.URL + "/api/v1/events/" + ingested.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestGetEventNotFound(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/events/" + model.NewID())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
