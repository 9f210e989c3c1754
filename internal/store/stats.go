// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"github.com/pkg/errors"
	"github.com/webhookrelay/relay/model"
)

// GetStats aggregates the counts surfaced by the admin stats endpoint.
func (sqlStore *SQLStore) GetStats() (*model.Stats, error) {
	eventsTotal, err := sqlStore.CountEvents()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count events")
	}

	subsTotal, subsActive, subsInactive, err := sqlStore.CountSubscriptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count subscriptions")
	}

	delTotal, delSuccess, delFailed, delPending, err := sqlStore.CountDeliveries()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count deliveries")
	}

	deadLetters, err := sqlStore.CountDeadLetters()
	if err != nil {
		return nil, errors.Wrap(err, "failed to count dead letters")
	}

	successRate := 0.0
	if delTotal > 0 {
		successRate = float64(delSuccess) / float64(delTotal) * 100
	}

	return &model.Stats{
		EventsTotal:           eventsTotal,
		SubscriptionsTotal:    subsTotal,
		SubscriptionsActive:   subsActive,
		SubscriptionsInactive: subsInactive,
		DeliveriesTotal:       delTotal,
		DeliveriesSuccess:     delSuccess,
		DeliveriesFailed:      delFailed,
		DeliveriesPending:     delPending,
		DeadLetterCount:       deadLetters,
		SuccessRate:           successRate,
	}, nil
}
