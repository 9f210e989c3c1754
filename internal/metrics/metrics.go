// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package metrics exposes the Prometheus instrumentation surfaced by the
// relay's HTTP server and background workers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webhook_relay"

// RelayMetrics holds every metric the relay records, from API request
// shape through delivery outcomes.
type RelayMetrics struct {
	APIRequestDuration *prometheus.HistogramVec
	APIRequestTotal    *prometheus.CounterVec

	EventsIngestedTotal  prometheus.Counter
	EventsDuplicateTotal prometheus.Counter
	FanoutDuration       prometheus.Histogram

	DeliveryDuration *prometheus.HistogramVec
	DeliveryTotal    *prometheus.CounterVec

	QueueDepth *prometheus.GaugeVec
}

// New registers and returns the relay's metrics.
func New() *RelayMetrics {
	return &RelayMetrics{
		APIRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of API endpoint handling, by handler, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler", "method", "status"}),

		APIRequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests served, by handler, method and status code.",
		}, []string{"handler", "method", "status"}),

		EventsIngestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of events newly stored by the ingestion endpoint; duplicates are counted by events_duplicate_total instead.",
		}),

		EventsDuplicateTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_duplicate_total",
			Help:      "Total number of ingestion requests that resolved to an already-stored idempotency key.",
		}),

		FanoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fanout_duration_seconds",
			Help:      "Duration of fan-out jobs, from dequeue to the last delivery enqueue.",
			Buckets:   prometheus.DefBuckets,
		}),

		DeliveryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of a single delivery attempt's outbound HTTP call, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),

		DeliveryTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Total delivery attempts, by outcome (success, failed, dropped).",
		}, []string{"outcome"}),

		QueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Approximate number of ready jobs on a topic, as last observed by the sweeper.",
		}, []string{"topic"}),
	}
}

// ObserveAPIEndpointDuration records one completed API request.
func (m *RelayMetrics) ObserveAPIEndpointDuration(handler, method string, statusCode int, elapsed time.Duration) {
	status := statusLabel(statusCode)
	m.APIRequestDuration.WithLabelValues(handler, method, status).Observe(elapsed.Seconds())
}

// IncrementAPIRequest counts one completed API request by its response status.
func (m *RelayMetrics) IncrementAPIRequest(handler, method string, statusCode int) {
	m.APIRequestTotal.WithLabelValues(handler, method, statusLabel(statusCode)).Inc()
}

// ObserveDelivery records a single delivery attempt's outcome and duration.
func (m *RelayMetrics) ObserveDelivery(outcome string, elapsed time.Duration) {
	m.DeliveryTotal.WithLabelValues(outcome).Inc()
	m.DeliveryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncrementEventIngested records one event accepted by the ingestion endpoint.
func (m *RelayMetrics) IncrementEventIngested() {
	m.EventsIngestedTotal.Inc()
}

// IncrementEventDuplicate records one ingestion request that resolved to an
// already-stored idempotency key.
func (m *RelayMetrics) IncrementEventDuplicate() {
	m.EventsDuplicateTotal.Inc()
}

// ObserveFanoutDuration records one fan-out job's wall-clock duration.
func (m *RelayMetrics) ObserveFanoutDuration(elapsed time.Duration) {
	m.FanoutDuration.Observe(elapsed.Seconds())
}

// SetQueueDepth records the last-observed ready-list length for a topic.
func (m *RelayMetrics) SetQueueDepth(topic string, depth float64) {
	m.QueueDepth.WithLabelValues(topic).Set(depth)
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	case statusCode >= 200:
		return "2xx"
	default:
		return "other"
	}
}
