// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webhookrelay/relay/model"
)

const idempotencyKeyHeader = "X-Idempotency-Key"

// initEvent registers the ingestion and inspection endpoints on the given router.
func initEvent(apiRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	eventsRouter := apiRouter.PathPrefix("/events").Subrouter()
	eventsRouter.Handle("", addContext(handleIngestEvent)).Methods("POST")

	eventRouter := apiRouter.PathPrefix("/events/{event:[A-Za-z0-9]{26}}").Subrouter()
	eventRouter.Handle("", addContext(handleGetEvent)).Methods("GET")
}

// handleIngestEvent responds to POST /api/v1/events: C4's ingestion contract.
func handleIngestEvent(c *Context, w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get(idempotencyKeyHeader)
	if idempotencyKey == "" {
		writeError(c, w, http.StatusBadRequest, codeMissingIdempotencyKey, "X-Idempotency-Key header is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, 10*1024*1024)
	req, err := model.NewIngestEventRequestFromReader(body)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	event, duplicate, err := c.Ingestor.Ingest(r.Context(), idempotencyKey, req)
	if err != nil {
		writeInternalError(c, w, "failed to ingest event", err)
		return
	}

	response := event.ToResponse()
	response.Duplicate = duplicate

	w.WriteHeader(http.StatusAccepted)
	outputJSON(c, w, response)
}

type eventWithDeliveriesResponse struct {
	*model.EventResponse
	DeliveryLogs []*model.DeliveryLogResponse `json:"deliveryLogs"`
}

// handleGetEvent responds to GET /api/v1/events/{event}, returning the
// event and all of its DeliveryLogs, newest attempt first.
func handleGetEvent(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event"]
	c.Logger = c.Logger.WithField("event_id", eventID)

	event, err := c.Store.GetEvent(eventID)
	if err != nil {
		writeInternalError(c, w, "failed to query event", err)
		return
	}
	if event == nil {
		writeError(c, w, http.StatusNotFound, codeEventNotFound, "event not found")
		return
	}

	logs, err := c.Store.GetDeliveryLogsForEvent(eventID)
	if err != nil {
		writeInternalError(c, w, "failed to query delivery logs for event", err)
		return
	}

	logResponses := make([]*model.DeliveryLogResponse, 0, len(logs))
	for _, log := range logs {
		logResponses = append(logResponses, log.ToResponse())
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, eventWithDeliveriesResponse{
		EventResponse: event.ToResponse(),
		DeliveryLogs:  logResponses,
	})
}
