// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import "github.com/pkg/errors"

// Sentinel errors returned by the store and relay packages. Handlers map
// these onto the stable wire error codes; nothing below this layer should
// leak a raw driver error to a caller.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSubscriptionNotFound indicates a referenced Subscription does not
	// exist, distinct from ErrNotFound so callers needing a more specific
	// wire error code (e.g. the retry path) don't have to guess which
	// entity was missing.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrDuplicateIdempotencyKey indicates an Event already exists for the
	// given idempotency key.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrDuplicateSubscription indicates an active Subscription already
	// exists for the given (event type, target URL) pair.
	ErrDuplicateSubscription = errors.New("duplicate subscription")
	// ErrIllegalTransition indicates an attempt to finish a DeliveryLog that
	// is not currently pending.
	ErrIllegalTransition = errors.New("illegal delivery log transition")
	// ErrInvalidRetry indicates a retry was requested for a DeliveryLog that
	// already succeeded.
	ErrInvalidRetry = errors.New("invalid retry")
	// ErrInactiveSubscription indicates an operation was attempted against a
	// Subscription that is not active.
	ErrInactiveSubscription = errors.New("inactive subscription")
)
