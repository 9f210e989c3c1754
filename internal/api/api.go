// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package api implements the relay's HTTP surface: the public ingestion
// endpoint and the admin surface (C7).
package api

import (
	"time"

	"github.com/gorilla/mux"
)

// StartedAt is stamped once at process start so the health handler can
// report uptime without depending on a clock abstraction.
var StartedAt time.Time

// Register registers the relay's HTTP endpoints on the given router.
func Register(rootRouter *mux.Router, context *Context) {
	rootRouter.Handle("/health", newContextHandler(context, handleHealth)).Methods("GET")

	apiRouter := rootRouter.PathPrefix("/api/v1").Subrouter()

	initEvent(apiRouter, context)

	adminRouter := apiRouter.PathPrefix("/admin").Subrouter()
	initSubscription(adminRouter, context)
	initDeliveryLog(adminRouter, context)
	initStats(adminRouter, context)
}
