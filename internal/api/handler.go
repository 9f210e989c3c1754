// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/webhookrelay/relay/model"
)

type contextHandlerFunc func(c *Context, w http.ResponseWriter, r *http.Request)

type contextHandler struct {
	context     *Context
	handler     contextHandlerFunc
	handlerName string
}

func (h contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ww := NewWrappedWriter(w)
	context := h.context.Clone()
	context.RequestID = model.NewID()

	context.Logger = context.Logger.WithFields(log.Fields{
		"handler": h.handlerName,
		"method":  r.Method,
		"path":    r.URL.Path,
		"request": context.RequestID,
	})

	context.Logger.Debug("handling request")

	h.handler(context, ww, r)

	elapsed := time.Since(start)
	if context.Metrics != nil {
		context.Metrics.ObserveAPIEndpointDuration(h.handlerName, r.Method, ww.StatusCode(), elapsed)
		context.Metrics.IncrementAPIRequest(h.handlerName, r.Method, ww.StatusCode())
	}
}

func newContextHandler(context *Context, handler contextHandlerFunc) *contextHandler {
	// Obtain the handler function name to be used for API metrics.
	splitFuncName := strings.Split(runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name(), ".")

	return &contextHandler{
		context:     context,
		handler:     handler,
		handlerName: splitFuncName[len(splitFuncName)-1],
	}
}
