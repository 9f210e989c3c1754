// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// initStats registers the admin aggregate-stats endpoint on the given router.
func initStats(apiRouter *mux.Router, context *Context) {
	statsRouter := apiRouter.PathPrefix("/stats").Subrouter()
	statsRouter.Handle("", newContextHandler(context, handleGetStats)).Methods("GET")
}

// handleGetStats responds to GET /api/v1/admin/stats with the aggregate
// counts surfaced on the operator dashboard.
func handleGetStats(c *Context, w http.ResponseWriter, r *http.Request) {
	stats, err := c.Store.GetStats()
	if err != nil {
		writeInternalError(c, w, "failed to query stats", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, stats)
}
