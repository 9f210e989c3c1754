// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/pkg/errors"
)

// SecretKeyBytes is the amount of cryptographically random entropy generated
// for a Subscription's secret key: 256 bits.
const SecretKeyBytes = 32

// Subscription binds an event type to a delivery target. At most one active
// Subscription may exist for a given (EventType, TargetURL) pair; this is
// enforced by the store, not by this type.
type Subscription struct {
	ID        string
	EventType string
	TargetURL string
	SecretKey string
	IsActive  bool
	CreatedAt int64
	UpdatedAt int64
}

// NewSecretKey generates a new high-entropy subscription secret, encoded
// with the standard base32 alphabet and no padding.
func NewSecretKey() (string, error) {
	raw := make([]byte, SecretKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "failed to generate secret key")
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ValidateTargetURL requires an absolute http(s) URL with a host, matching
// the Subscription invariant in the data model.
func ValidateTargetURL(targetURL string) error {
	if targetURL == "" {
		return errors.New("targetUrl must not be empty")
	}
	u, err := url.ParseRequestURI(targetURL)
	if err != nil {
		return errors.Wrap(err, "targetUrl is not a valid absolute URL")
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("targetUrl scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("targetUrl must specify a host")
	}
	return nil
}

// SubscriptionsFilter constrains a Subscription listing query.
type SubscriptionsFilter struct {
	Paging
	EventType string
	IsActive  *bool
}

// CreateSubscriptionRequest is the decoded body of POST /admin/subscriptions.
type CreateSubscriptionRequest struct {
	EventType string `json:"eventType"`
	TargetURL string `json:"targetUrl"`
}

// NewCreateSubscriptionRequestFromReader decodes and validates a
// CreateSubscriptionRequest.
func NewCreateSubscriptionRequestFromReader(reader io.Reader) (*CreateSubscriptionRequest, error) {
	var request CreateSubscriptionRequest
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode create subscription request")
	}

	if err := ValidateEventType(request.EventType); err != nil {
		return nil, err
	}
	if err := ValidateTargetURL(request.TargetURL); err != nil {
		return nil, err
	}

	return &request, nil
}

// UpdateSubscriptionRequest is the decoded body of PUT /admin/subscriptions/:id.
// Fields are pointers so that the handler can distinguish "not supplied" from
// "explicitly cleared" when building the patch.
type UpdateSubscriptionRequest struct {
	EventType *string `json:"eventType"`
	TargetURL *string `json:"targetUrl"`
	IsActive  *bool   `json:"isActive"`
}

// NewUpdateSubscriptionRequestFromReader decodes and validates an
// UpdateSubscriptionRequest, validating only the fields actually supplied.
func NewUpdateSubscriptionRequestFromReader(reader io.Reader) (*UpdateSubscriptionRequest, error) {
	var request UpdateSubscriptionRequest
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode update subscription request")
	}

	if request.EventType != nil {
		if err := ValidateEventType(*request.EventType); err != nil {
			return nil, err
		}
	}
	if request.TargetURL != nil {
		if err := ValidateTargetURL(*request.TargetURL); err != nil {
			return nil, err
		}
	}

	return &request, nil
}

// SubscriptionResponse is the wire shape for a Subscription. SecretKey is
// only populated on creation; subsequent reads omit it.
type SubscriptionResponse struct {
	ID        string `json:"id"`
	EventType string `json:"eventType"`
	TargetURL string `json:"targetUrl"`
	SecretKey string `json:"secretKey,omitempty"`
	IsActive  bool   `json:"isActive"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// ToResponse projects a Subscription into its wire representation.
// includeSecret should be true only immediately after creation.
func (s *Subscription) ToResponse(includeSecret bool) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:        s.ID,
		EventType: s.EventType,
		TargetURL: s.TargetURL,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if includeSecret {
		resp.SecretKey = s.SecretKey
	}
	return resp
}
