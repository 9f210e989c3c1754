// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/webhookrelay/relay/model"
)

const subscriptionTable = "Subscription"

var subscriptionColumns = []string{
	"ID", "EventType", "TargetURL", "SecretKey", "IsActive", "CreatedAt", "UpdatedAt",
}

var subscriptionSelect = sq.Select(subscriptionColumns...).From(subscriptionTable)

// CreateSubscription inserts a new Subscription. Violating the partial
// uniqueness rule on (EventType, TargetURL, IsActive=true) surfaces as
// model.ErrDuplicateSubscription.
func (sqlStore *SQLStore) CreateSubscription(sub *model.Subscription) error {
	sub.ID = model.NewID()
	now := model.GetMillis()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(subscriptionTable).
		SetMap(map[string]interface{}{
			"ID":        sub.ID,
			"EventType": sub.EventType,
			"TargetURL": sub.TargetURL,
			"SecretKey": sub.SecretKey,
			"IsActive":  sub.IsActive,
			"CreatedAt": sub.CreatedAt,
			"UpdatedAt": sub.UpdatedAt,
		}),
	)
	if err != nil {
		if isUniqueConstraintViolation(errors.Cause(err)) {
			return model.ErrDuplicateSubscription
		}
		return errors.Wrap(err, "failed to create subscription")
	}

	return nil
}

// GetSubscription fetches a Subscription by id.
func (sqlStore *SQLStore) GetSubscription(id string) (*model.Subscription, error) {
	var sub model.Subscription
	err := sqlStore.getBuilder(sqlStore.db, &sub, subscriptionSelect.Where("ID = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get subscription")
	}
	return &sub, nil
}

// GetSubscriptions fetches Subscriptions matching the given filter.
func (sqlStore *SQLStore) GetSubscriptions(filter *model.SubscriptionsFilter) ([]*model.Subscription, error) {
	query := subscriptionSelect.OrderBy("CreatedAt ASC")

	if filter.EventType != "" {
		query = query.Where("EventType = ?", filter.EventType)
	}
	if filter.IsActive != nil {
		query = query.Where(sq.Eq{"IsActive": *filter.IsActive})
	}
	if filter.Paging.PerPage != model.AllPerPage {
		query = query.
			Limit(uint64(filter.Paging.PerPage)).
			Offset(uint64(filter.Paging.Page * filter.Paging.PerPage))
	}

	subs := []*model.Subscription{}
	err := sqlStore.selectBuilder(sqlStore.db, &subs, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query subscriptions")
	}
	return subs, nil
}

// ListActiveSubscriptions returns every active Subscription for an event
// type, the input to fan-out.
func (sqlStore *SQLStore) ListActiveSubscriptions(eventType string) ([]*model.Subscription, error) {
	active := true
	return sqlStore.GetSubscriptions(&model.SubscriptionsFilter{
		Paging:    model.AllPagesNotDeleted(),
		EventType: eventType,
		IsActive:  &active,
	})
}

// UpdateSubscription applies a patch built by the caller from an
// UpdateSubscriptionRequest. Only non-nil fields from patch are written.
func (sqlStore *SQLStore) UpdateSubscription(id string, patch *model.UpdateSubscriptionRequest) (*model.Subscription, error) {
	setMap := map[string]interface{}{
		"UpdatedAt": model.GetMillis(),
	}
	if patch.EventType != nil {
		setMap["EventType"] = *patch.EventType
	}
	if patch.TargetURL != nil {
		setMap["TargetURL"] = *patch.TargetURL
	}
	if patch.IsActive != nil {
		setMap["IsActive"] = *patch.IsActive
	}

	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(subscriptionTable).
		SetMap(setMap).
		Where("ID = ?", id),
	)
	if err != nil {
		if isUniqueConstraintViolation(errors.Cause(err)) {
			return nil, model.ErrDuplicateSubscription
		}
		return nil, errors.Wrap(err, "failed to update subscription")
	}

	return sqlStore.GetSubscription(id)
}

// DeleteSubscription hard-deletes a Subscription. Existing DeliveryLogs
// referencing it are untouched; they carry their own snapshot of the
// subscription id and survive the delete.
func (sqlStore *SQLStore) DeleteSubscription(id string) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Delete(subscriptionTable).
		Where("ID = ?", id),
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete subscription")
	}
	return nil
}

// CountSubscriptions returns (total, active, inactive) counts for the admin
// stats endpoint.
func (sqlStore *SQLStore) CountSubscriptions() (total, active, inactive int64, err error) {
	var totalResult countResult
	err = sqlStore.selectBuilder(sqlStore.db, &totalResult, sq.Select("COUNT(*) as count").From(subscriptionTable))
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to count subscriptions")
	}
	total, err = totalResult.value()
	if err != nil {
		return 0, 0, 0, err
	}

	var activeResult countResult
	err = sqlStore.selectBuilder(sqlStore.db, &activeResult,
		sq.Select("COUNT(*) as count").From(subscriptionTable).Where(sq.Eq{"IsActive": true}))
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to count active subscriptions")
	}
	active, err = activeResult.value()
	if err != nil {
		return 0, 0, 0, err
	}

	inactive = total - active
	return total, active, inactive, nil
}
