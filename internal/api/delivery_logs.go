// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webhookrelay/relay/model"
)

// initDeliveryLog registers the admin delivery-log listing and manual
// retry endpoints on the given router.
func initDeliveryLog(apiRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	logsRouter := apiRouter.PathPrefix("/delivery-logs").Subrouter()
	logsRouter.Handle("", addContext(handleListDeliveryLogs)).Methods("GET")

	logRouter := apiRouter.PathPrefix("/delivery-logs/{log:[A-Za-z0-9]{26}}").Subrouter()
	logRouter.Handle("/retry", addContext(handleRetryDeliveryLog)).Methods("POST")
}

// handleListDeliveryLogs responds to GET /api/v1/admin/delivery-logs,
// filterable by eventId, subscriptionId, status, eventType, and an
// attemptedAt date range.
func handleListDeliveryLogs(c *Context, w http.ResponseWriter, r *http.Request) {
	paging, err := parsePaging(r.URL)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	startDate, err := parseInt(r.URL, "startDate", 0)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}
	endDate, err := parseInt(r.URL, "endDate", 0)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	filter := &model.DeliveryLogFilter{
		Paging:         paging,
		EventID:        parseString(r.URL, "eventId", ""),
		SubscriptionID: parseString(r.URL, "subscriptionId", ""),
		Status:         model.DeliveryStatus(parseString(r.URL, "status", "")),
		EventType:      parseString(r.URL, "eventType", ""),
		StartDate:      int64(startDate),
		EndDate:        int64(endDate),
	}

	logs, err := c.Store.GetDeliveryLogs(filter)
	if err != nil {
		writeInternalError(c, w, "failed to query delivery logs", err)
		return
	}

	responses := make([]*model.DeliveryLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, log.ToResponse())
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, responses)
}

// handleRetryDeliveryLog responds to POST /api/v1/admin/delivery-logs/{log}/retry,
// enqueuing a fresh delivery attempt for the (event, subscription) pair the
// log references.
func handleRetryDeliveryLog(c *Context, w http.ResponseWriter, r *http.Request) {
	logID := mux.Vars(r)["log"]
	c.Logger = c.Logger.WithField("delivery_log_id", logID)

	err := c.Retrier.Retry(r.Context(), logID)
	switch err {
	case nil:
		w.WriteHeader(http.StatusOK)
		return
	case model.ErrNotFound:
		writeError(c, w, http.StatusNotFound, codeLogNotFound, "delivery log not found")
	case model.ErrSubscriptionNotFound:
		writeError(c, w, http.StatusNotFound, codeSubscriptionNotFound, "subscription not found")
	case model.ErrInvalidRetry:
		writeError(c, w, http.StatusBadRequest, codeInvalidRetry, "delivery log already succeeded")
	case model.ErrInactiveSubscription:
		writeError(c, w, http.StatusBadRequest, codeInactiveSubscription, "subscription is not active")
	default:
		writeInternalError(c, w, "failed to retry delivery", err)
	}
}
