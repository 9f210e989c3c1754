// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"io"
	"regexp"

	"github.com/pkg/errors"
)

// MaxEventPayloadBytes is the maximum serialized size of an Event's payload.
const MaxEventPayloadBytes = 1024 * 1024 // 1 MiB

// eventTypePattern constrains EventType to a small, predictable grammar.
var eventTypePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Event is an immutable record of something a producer reported. Once
// created an Event is never mutated; a producer that replays the same
// IdempotencyKey observes the original row back.
type Event struct {
	ID             string
	IdempotencyKey string
	EventType      string
	Payload        RawJSON
	ReceivedAt     int64
}

// ValidateEventType reports whether an event type string satisfies the
// relay's grammar.
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return errors.New("eventType must not be empty")
	}
	if !eventTypePattern.MatchString(eventType) {
		return errors.Errorf("eventType %q does not match required pattern %s", eventType, eventTypePattern.String())
	}
	return nil
}

// IngestEventRequest is the decoded body of POST /api/v1/events.
type IngestEventRequest struct {
	EventType string  `json:"eventType"`
	Payload   RawJSON `json:"payload"`
}

// NewIngestEventRequestFromReader decodes and validates an IngestEventRequest
// from the given reader, enforcing the event type grammar and payload size
// cap named in the ingestion contract.
func NewIngestEventRequestFromReader(reader io.Reader) (*IngestEventRequest, error) {
	var request IngestEventRequest
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode ingest event request")
	}

	if err := ValidateEventType(request.EventType); err != nil {
		return nil, err
	}
	if !IsValidJSONObject(request.Payload) {
		return nil, errors.New("payload must be a JSON object")
	}
	if request.Payload.SizeBytes() > MaxEventPayloadBytes {
		return nil, errors.Errorf("payload exceeds maximum size of %d bytes", MaxEventPayloadBytes)
	}

	return &request, nil
}

// EventResponse is the wire shape returned for an ingested or inspected Event.
type EventResponse struct {
	ID             string  `json:"id"`
	IdempotencyKey string  `json:"idempotencyKey"`
	EventType      string  `json:"eventType"`
	Payload        RawJSON `json:"payload"`
	ReceivedAt     int64   `json:"receivedAt"`
	Duplicate      bool    `json:"duplicate,omitempty"`
}

// ToResponse projects an Event into its wire representation.
func (e *Event) ToResponse() *EventResponse {
	return &EventResponse{
		ID:             e.ID,
		IdempotencyKey: e.IdempotencyKey,
		EventType:      e.EventType,
		Payload:        e.Payload,
		ReceivedAt:     e.ReceivedAt,
	}
}

// OutboundEnvelope is the JSON document POSTed to a subscriber, per the
// outbound webhook contract.
type OutboundEnvelope struct {
	ID             string  `json:"id"`
	EventType      string  `json:"eventType"`
	Payload        RawJSON `json:"payload"`
	ReceivedAt     int64   `json:"receivedAt"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

// Envelope builds the outbound envelope body for a delivery attempt.
func (e *Event) Envelope() *OutboundEnvelope {
	return &OutboundEnvelope{
		ID:             e.ID,
		EventType:      e.EventType,
		Payload:        e.Payload,
		ReceivedAt:     e.ReceivedAt,
		IdempotencyKey: e.IdempotencyKey,
	}
}
