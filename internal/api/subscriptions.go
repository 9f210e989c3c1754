// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/webhookrelay/relay/model"
)

// initSubscription registers the admin subscription CRUD endpoints on the
// given router.
func initSubscription(apiRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	subscriptionsRouter := apiRouter.PathPrefix("/subscriptions").Subrouter()
	subscriptionsRouter.Handle("", addContext(handleListSubscriptions)).Methods("GET")
	subscriptionsRouter.Handle("", addContext(handleCreateSubscription)).Methods("POST")

	subscriptionRouter := apiRouter.PathPrefix("/subscriptions/{subscription:[A-Za-z0-9]{26}}").Subrouter()
	subscriptionRouter.Handle("", addContext(handleGetSubscription)).Methods("GET")
	subscriptionRouter.Handle("", addContext(handleUpdateSubscription)).Methods("PUT")
	subscriptionRouter.Handle("", addContext(handleDeleteSubscription)).Methods("DELETE")
}

// handleCreateSubscription responds to POST /api/v1/admin/subscriptions. The
// response is the only time the generated secret key is ever returned.
func handleCreateSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	createReq, err := model.NewCreateSubscriptionRequestFromReader(r.Body)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	secretKey, err := model.NewSecretKey()
	if err != nil {
		writeInternalError(c, w, "failed to generate subscription secret key", err)
		return
	}

	sub := &model.Subscription{
		EventType: createReq.EventType,
		TargetURL: createReq.TargetURL,
		SecretKey: secretKey,
		IsActive:  true,
	}

	if err := c.Store.CreateSubscription(sub); err != nil {
		if err == model.ErrDuplicateSubscription {
			writeError(c, w, http.StatusConflict, codeDuplicateSubscription, "an active subscription already exists for this event type and target URL")
			return
		}
		writeInternalError(c, w, "failed to create subscription", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	outputJSON(c, w, sub.ToResponse(true))
}

// handleListSubscriptions responds to GET /api/v1/admin/subscriptions.
func handleListSubscriptions(c *Context, w http.ResponseWriter, r *http.Request) {
	paging, err := parsePaging(r.URL)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	isActive, err := parseBool(r.URL, "isActive")
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	filter := &model.SubscriptionsFilter{
		Paging:    paging,
		EventType: parseString(r.URL, "eventType", ""),
		IsActive:  isActive,
	}

	subscriptions, err := c.Store.GetSubscriptions(filter)
	if err != nil {
		writeInternalError(c, w, "failed to query subscriptions", err)
		return
	}

	responses := make([]*model.SubscriptionResponse, 0, len(subscriptions))
	for _, sub := range subscriptions {
		responses = append(responses, sub.ToResponse(false))
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, responses)
}

// handleGetSubscription responds to GET /api/v1/admin/subscriptions/{subscription}.
func handleGetSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	subID := mux.Vars(r)["subscription"]
	c.Logger = c.Logger.WithField("subscription_id", subID)

	sub, err := c.Store.GetSubscription(subID)
	if err != nil {
		writeInternalError(c, w, "failed to query subscription", err)
		return
	}
	if sub == nil {
		writeError(c, w, http.StatusNotFound, codeSubscriptionNotFound, "subscription not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, sub.ToResponse(false))
}

// handleUpdateSubscription responds to PUT /api/v1/admin/subscriptions/{subscription},
// patching only the fields supplied in the request body.
func handleUpdateSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	subID := mux.Vars(r)["subscription"]
	c.Logger = c.Logger.WithField("subscription_id", subID)

	patch, err := model.NewUpdateSubscriptionRequestFromReader(r.Body)
	if err != nil {
		writeError(c, w, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	updated, err := c.Store.UpdateSubscription(subID, patch)
	if err != nil {
		if err == model.ErrDuplicateSubscription {
			writeError(c, w, http.StatusConflict, codeDuplicateSubscription, "an active subscription already exists for this event type and target URL")
			return
		}
		writeInternalError(c, w, "failed to update subscription", err)
		return
	}
	if updated == nil {
		writeError(c, w, http.StatusNotFound, codeSubscriptionNotFound, "subscription not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, updated.ToResponse(false))
}

// handleDeleteSubscription responds to DELETE /api/v1/admin/subscriptions/{subscription}.
func handleDeleteSubscription(c *Context, w http.ResponseWriter, r *http.Request) {
	subID := mux.Vars(r)["subscription"]
	c.Logger = c.Logger.WithField("subscription_id", subID)

	sub, err := c.Store.GetSubscription(subID)
	if err != nil {
		writeInternalError(c, w, "failed to query subscription", err)
		return
	}
	if sub == nil {
		writeError(c, w, http.StatusNotFound, codeSubscriptionNotFound, "subscription not found")
		return
	}

	if err := c.Store.DeleteSubscription(subID); err != nil {
		writeInternalError(c, w, "failed to delete subscription", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
