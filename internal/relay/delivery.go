// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/webhookrelay/relay/internal/queue"
	"github.com/webhookrelay/relay/internal/signer"
	"github.com/webhookrelay/relay/model"
)

const (
	contentTypeJSON        = "application/json"
	userAgent              = "webhook-relay/1.0"
	responseBodyCapBytes   = 1000
	responseReadLimitBytes = 64 * 1024
)

type deliveryStore interface {
	GetEvent(id string) (*model.Event, error)
	GetSubscription(id string) (*model.Subscription, error)
	CreateDeliveryLog(log *model.DeliveryLog) error
	FinishDeliveryLog(id string, status model.DeliveryStatus, responseStatusCode *int, responseBody *string, errorMessage *string) error
}

// deliveryMetrics is the slice of metrics.RelayMetrics the delivery worker
// reports to. Satisfied by *metrics.RelayMetrics; may be nil.
type deliveryMetrics interface {
	ObserveDelivery(outcome string, elapsed time.Duration)
}

// DeliveryWorker is C6: it executes a single delivery attempt against one
// subscriber and records the outcome.
type DeliveryWorker struct {
	store   deliveryStore
	client  *http.Client
	metrics deliveryMetrics
	logger  logrus.FieldLogger
}

// NewDeliveryWorker constructs a DeliveryWorker whose outbound HTTP calls
// are bounded by client's Timeout. metrics may be nil to skip instrumentation.
func NewDeliveryWorker(store deliveryStore, client *http.Client, metrics deliveryMetrics, logger logrus.FieldLogger) *DeliveryWorker {
	return &DeliveryWorker{store: store, client: client, metrics: metrics, logger: logger.WithField("component", "delivery")}
}

// Handler adapts DeliveryWorker to queue.Handler. A returned error signals
// the pool to schedule a retry (if attempts remain).
func (d *DeliveryWorker) Handler() queue.Handler {
	return d.process
}

func (d *DeliveryWorker) process(ctx context.Context, job *queue.Job) error {
	log := d.logger.WithFields(logrus.Fields{
		"event_id":        job.EventID,
		"subscription_id": job.SubscriptionID,
		"attempt":         job.Attempt,
	})

	event, err := d.store.GetEvent(job.EventID)
	if err != nil {
		return errors.Wrap(err, "failed to load event for delivery job")
	}
	if event == nil {
		log.Error("event missing for delivery job")
		d.observe("dropped", 0)
		return nil // fatal: no point retrying a missing event.
	}

	subscription, err := d.store.GetSubscription(job.SubscriptionID)
	if err != nil {
		return errors.Wrap(err, "failed to load subscription for delivery job")
	}
	if subscription == nil || !subscription.IsActive {
		log.Debug("subscription missing or inactive; dropping delivery attempt")
		d.observe("dropped", 0)
		return nil
	}

	deliveryLog := &model.DeliveryLog{
		EventID:        event.ID,
		SubscriptionID: subscription.ID,
		AttemptCount:   job.Attempt,
	}
	if err := d.store.CreateDeliveryLog(deliveryLog); err != nil {
		return errors.Wrap(err, "failed to create delivery log")
	}

	start := time.Now()
	statusCode, body, deliverErr := d.deliver(ctx, subscription, event)
	elapsed := time.Since(start)

	return d.finish(deliveryLog.ID, statusCode, body, deliverErr, elapsed, log)
}

// observe reports a delivery outcome if metrics instrumentation is enabled.
func (d *DeliveryWorker) observe(outcome string, elapsed time.Duration) {
	if d.metrics != nil {
		d.metrics.ObserveDelivery(outcome, elapsed)
	}
}

func (d *DeliveryWorker) deliver(ctx context.Context, subscription *model.Subscription, event *model.Event) (*int, []byte, error) {
	envelope := event.Envelope()
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to marshal outbound envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, subscription.TargetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build outbound request")
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set(signer.SignatureHeader, signer.Sign([]byte(subscription.SecretKey), payload))
	req.Header.Set(signer.TimestampHeader, signer.Timestamp(time.Now()))
	req.Header.Set("X-Event-Type", event.EventType)
	req.Header.Set("X-Event-Id", event.ID)
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "transport error delivering event")
	}
	defer drainAndClose(resp.Body)

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, responseReadLimitBytes))
	if readErr != nil {
		body = []byte(fmt.Sprintf("failed to read response body: %s", readErr.Error()))
	}

	statusCode := resp.StatusCode
	return &statusCode, body, nil
}

func (d *DeliveryWorker) finish(logID string, statusCode *int, body []byte, deliverErr error, elapsed time.Duration, log logrus.FieldLogger) error {
	truncated := truncateResponseBody(body)

	if deliverErr != nil {
		errMsg := deliverErr.Error()
		if err := d.store.FinishDeliveryLog(logID, model.DeliveryFailed, nil, nil, &errMsg); err != nil {
			log.WithError(err).Error("failed to record transport-error delivery log")
		}
		d.observe("failed", elapsed)
		return deliverErr
	}

	if *statusCode >= 200 && *statusCode <= 299 {
		if err := d.store.FinishDeliveryLog(logID, model.DeliverySuccess, statusCode, &truncated, nil); err != nil {
			log.WithError(err).Error("failed to record successful delivery log")
		}
		d.observe("success", elapsed)
		return nil
	}

	errMsg := fmt.Sprintf("HTTP %d", *statusCode)
	if err := d.store.FinishDeliveryLog(logID, model.DeliveryFailed, statusCode, &truncated, &errMsg); err != nil {
		log.WithError(err).Error("failed to record failed delivery log")
	}
	d.observe("failed", elapsed)
	return errors.New(errMsg)
}

func truncateResponseBody(body []byte) string {
	if len(body) > responseBodyCapBytes {
		return string(body[:responseBodyCapBytes])
	}
	return string(body)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
