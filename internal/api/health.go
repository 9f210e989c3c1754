// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

// handleHealth responds to GET /health. It deliberately does not touch the
// store or queue so probe traffic stays cheap.
func handleHealth(c *Context, w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(StartedAt).Seconds()
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, healthResponse{Status: "OK", Uptime: uptime})
}
