// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/webhookrelay/relay/model"
)

func parseString(u *url.URL, name string, defaultValue string) string {
	valueStr := u.Query().Get(name)
	if valueStr == "" {
		return defaultValue
	}

	return valueStr
}

func parseInt(u *url.URL, name string, defaultValue int) (int, error) {
	valueStr := u.Query().Get(name)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s as integer", name)
	}

	return value, nil
}

func parseBool(u *url.URL, name string) (*bool, error) {
	valueStr := u.Query().Get(name)
	if valueStr == "" {
		return nil, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s as boolean", name)
	}

	return &value, nil
}

func parsePaging(u *url.URL) (model.Paging, error) {
	page, err := parseInt(u, "page", 0)
	if err != nil {
		return model.Paging{}, err
	}

	perPage, err := parseInt(u, "per_page", 100)
	if err != nil {
		return model.Paging{}, err
	}

	return model.Paging{
		Page:    page,
		PerPage: perPage,
	}, nil
}

// errorCode is the stable wire error code vocabulary named in the error
// handling contract.
type errorCode string

const (
	codeMissingIdempotencyKey errorCode = "MISSING_IDEMPOTENCY_KEY"
	codeValidationError       errorCode = "VALIDATION_ERROR"
	codeInvalidURL            errorCode = "INVALID_URL"
	codeDuplicateSubscription errorCode = "DUPLICATE_SUBSCRIPTION"
	codeEventNotFound         errorCode = "EVENT_NOT_FOUND"
	codeSubscriptionNotFound  errorCode = "SUBSCRIPTION_NOT_FOUND"
	codeLogNotFound           errorCode = "LOG_NOT_FOUND"
	codeInvalidRetry          errorCode = "INVALID_RETRY"
	codeInactiveSubscription  errorCode = "INACTIVE_SUBSCRIPTION"
	codeInternalError         errorCode = "INTERNAL_ERROR"
)

// errorResponse is the JSON envelope returned alongside non-2xx responses.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

func outputJSON(c *Context, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.Logger.WithError(err).Error("failed to encode response body")
	}
}

func writeError(c *Context, w http.ResponseWriter, status int, code errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Code: code, Message: message}); err != nil {
		c.Logger.WithError(err).Error("failed to encode error response body")
	}
}

func writeInternalError(c *Context, w http.ResponseWriter, logMessage string, err error) {
	c.Logger.WithError(err).Error(logMessage)
	writeError(c, w, http.StatusInternalServerError, codeInternalError, "an internal error occurred")
}
