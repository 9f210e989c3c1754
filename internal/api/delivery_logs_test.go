// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/webhookrelay/relay/internal/api"
	"github.com/webhookrelay/relay/internal/store"
	"github.com/webhookrelay/relay/internal/testlib"
	"github.com/webhookrelay/relay/model"
)

func TestListDeliveryLogsEmpty(t *testing.T) {
	sqlStore := store.MakeTestSQLStore(t, testlib.MakeLogger(t))
	ts := newTestServer(t, sqlStore)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/admin/delivery-logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs []*model.DeliveryLogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Empty(t, logs)
}

func TestRetryDeliveryLogMapsErrors(t *testing.T) {
	logger := testlib.MakeLogger(t)

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"subscription not found", model.ErrSubscriptionNotFound, http.StatusNotFound},
		{"invalid retry", model.ErrInvalidRetry, http.StatusBadRequest},
		{"inactive subscription", model.ErrInactiveSubscription, http.StatusBadRequest},
		{"success", nil, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			api.Register(router, &api.Context{
				Store:    store.MakeTestSQLStore(t, logger),
				Queue:    &fakeAPIQueue{},
				Retrier:  &fakeAPIRetrier{err: tc.err},
				Ingestor: nil,
				Logger:   logger,
			})
			ts := httptest.NewServer(router)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/api/v1/admin/delivery-logs/"+model.NewID()+"/retry", "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
