// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/webhookrelay/relay/internal/api"
	"github.com/webhookrelay/relay/internal/relay"
	"github.com/webhookrelay/relay/internal/store"
	"github.com/webhookrelay/relay/internal/testlib"
	"github.com/webhookrelay/relay/model"
)

func newTestServer(t *testing.T, sqlStore *store.SQLStore) *httptest.Server {
	logger := testlib.MakeLogger(t)
	queue := &fakeAPIQueue{}
	router := mux.NewRouter()
	api.Register(router, &api.Context{
		Store:    sqlStore,
		Queue:    queue,
		Ingestor: relay.NewIngestor(sqlStore, queue, nil, logger),
		Retrier:  relay.NewRetrier(sqlStore, queue),
		Logger:   logger,
	})
	return httptest.NewServer(router)
}

func TestSubscriptionCRUD(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	createBody, err := json.Marshal(model.CreateSubscriptionRequest{
		EventType: "order.paid",
		TargetURL: "https://sink.example.com/hook",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/admin/subscriptions", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.SubscriptionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.SecretKey)

	getResp, err := http.Get(ts.URL + "/api/v1/admin/subscriptions/" + created.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched model.SubscriptionResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	require.Empty(t, fetched.SecretKey)
	require.Equal(t, created.ID, fetched.ID)

	notFoundResp, err := http.Get(ts.URL + "/api/v1/admin/subscriptions/" + model.NewID())
	require.NoError(t, err)
	defer notFoundResp.Body.Close()
	require.Equal(t, http.StatusNotFound, notFoundResp.StatusCode)

	updateBody, err := json.Marshal(model.UpdateSubscriptionRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/admin/subscriptions/"+created.ID, bytes.NewReader(updateBody))
	require.NoError(t, err)
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer putResp.Body.Close()
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	var updated model.SubscriptionResponse
	require.NoError(t, json.NewDecoder(putResp.Body).Decode(&updated))
	require.False(t, updated.IsActive)

	delReq, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/admin/subscriptions/"+created.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	finalResp, err := http.Get(ts.URL + "/api/v1/admin/subscriptions/" + created.ID)
	require.NoError(t, err)
	defer finalResp.Body.Close()
	require.Equal(t, http.StatusNotFound, finalResp.StatusCode)
}

func TestSubscriptionCreateRejectsInvalidURL(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	createBody, err := json.Marshal(model.CreateSubscriptionRequest{
		EventType: "order.paid",
		TargetURL: "not-a-url",
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/admin/subscriptions", "application/json", bytes.NewReader(createBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscriptionCreateRejectsDuplicate(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	createBody, err := json.Marshal(model.CreateSubscriptionRequest{
		EventType: "order.paid",
		TargetURL: "https://sink.example.com/hook",
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := http.Post(ts.URL+"/api/v1/admin/subscriptions", "application/json", bytes.NewReader(createBody))
		require.NoError(t, err)
		defer resp.Body.Close()
		if i == 0 {
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		} else {
			require.Equal(t, http.StatusConflict, resp.StatusCode)
		}
	}
}

func boolPtr(b bool) *bool { return &b }
