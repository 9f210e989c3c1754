// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

// DeliveryStatus is the status of a single delivery attempt.
type DeliveryStatus string

const (
	// DeliveryPending indicates the attempt has been recorded but the
	// outbound call has not yet returned.
	DeliveryPending DeliveryStatus = "pending"
	// DeliverySuccess is a terminal state: the subscriber responded 2xx.
	DeliverySuccess DeliveryStatus = "success"
	// DeliveryFailed is a terminal state: a non-2xx response or transport error.
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryLog is one row per attempt against one (Event, Subscription) pair.
// Rows are append-only: a new attempt against the same pair produces a new
// row with a higher AttemptCount rather than mutating an existing one.
type DeliveryLog struct {
	ID                 string
	EventID            string
	SubscriptionID     string
	Status             DeliveryStatus
	AttemptCount       int
	AttemptedAt        int64
	ResponseStatusCode *int
	ResponseBody       *string
	ErrorMessage       *string
}

// IsTerminal reports whether the delivery log has reached a terminal state.
func (d *DeliveryLog) IsTerminal() bool {
	return d.Status == DeliverySuccess || d.Status == DeliveryFailed
}

// DeliveryLogFilter constrains a DeliveryLog listing query, mirroring the
// filters named in the admin surface contract.
type DeliveryLogFilter struct {
	Paging
	EventID        string
	SubscriptionID string
	Status         DeliveryStatus
	EventType      string
	StartDate      int64
	EndDate        int64
}

// DeliveryLogResponse is the wire shape for a DeliveryLog.
type DeliveryLogResponse struct {
	ID                  string  `json:"id"`
	EventID             string  `json:"eventId"`
	SubscriptionID      string  `json:"subscriptionId"`
	Status              string  `json:"status"`
	AttemptCount        int     `json:"attemptCount"`
	AttemptedAt         int64   `json:"attemptedAt"`
	ResponseStatusCode  *int    `json:"responseStatusCode,omitempty"`
	ResponseBody        *string `json:"responseBody,omitempty"`
	ErrorMessage        *string `json:"errorMessage,omitempty"`
}

// ToResponse projects a DeliveryLog into its wire representation.
func (d *DeliveryLog) ToResponse() *DeliveryLogResponse {
	return &DeliveryLogResponse{
		ID:                 d.ID,
		EventID:            d.EventID,
		SubscriptionID:     d.SubscriptionID,
		Status:             string(d.Status),
		AttemptCount:       d.AttemptCount,
		AttemptedAt:        d.AttemptedAt,
		ResponseStatusCode: d.ResponseStatusCode,
		ResponseBody:       d.ResponseBody,
		ErrorMessage:       d.ErrorMessage,
	}
}

// Stats is the aggregate view returned by the admin stats endpoint.
type Stats struct {
	EventsTotal          int64   `json:"eventsTotal"`
	SubscriptionsTotal   int64   `json:"subscriptionsTotal"`
	SubscriptionsActive  int64   `json:"subscriptionsActive"`
	SubscriptionsInactive int64  `json:"subscriptionsInactive"`
	DeliveriesTotal      int64   `json:"deliveriesTotal"`
	DeliveriesSuccess    int64   `json:"deliveriesSuccess"`
	DeliveriesFailed     int64   `json:"deliveriesFailed"`
	DeliveriesPending    int64   `json:"deliveriesPending"`
	DeadLetterCount      int64   `json:"deadLetterCount"`
	SuccessRate          float64 `json:"successRate"`
}
