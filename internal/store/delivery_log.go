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

const deliveryLogTable = "DeliveryLog"

var deliveryLogColumns = []string{
	"ID", "EventID", "SubscriptionID", "Status", "AttemptCount", "AttemptedAt",
	"ResponseStatusCode", "ResponseBody", "ErrorMessage",
}

var deliveryLogSelect = sq.Select(deliveryLogColumns...).From(deliveryLogTable)

// CreateDeliveryLog inserts a new DeliveryLog row in the pending state,
// immediately before the delivery worker places the outbound HTTP call.
func (sqlStore *SQLStore) CreateDeliveryLog(log *model.DeliveryLog) error {
	log.ID = model.NewID()
	log.Status = model.DeliveryPending
	log.AttemptedAt = model.GetMillis()

	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(deliveryLogTable).
		SetMap(map[string]interface{}{
			"ID":                 log.ID,
			"EventID":            log.EventID,
			"SubscriptionID":     log.SubscriptionID,
			"Status":             log.Status,
			"AttemptCount":       log.AttemptCount,
			"AttemptedAt":        log.AttemptedAt,
			"ResponseStatusCode": log.ResponseStatusCode,
			"ResponseBody":       log.ResponseBody,
			"ErrorMessage":       log.ErrorMessage,
		}),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create delivery log")
	}
	return nil
}

// FinishDeliveryLog transitions a pending DeliveryLog to a terminal status.
// It is only valid when the row is currently pending; otherwise it returns
// model.ErrIllegalTransition, guaranteeing terminal rows are never mutated.
func (sqlStore *SQLStore) FinishDeliveryLog(id string, status model.DeliveryStatus, responseStatusCode *int, responseBody *string, errorMessage *string) error {
	result, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(deliveryLogTable).
		SetMap(map[string]interface{}{
			"Status":             status,
			"ResponseStatusCode": responseStatusCode,
			"ResponseBody":       responseBody,
			"ErrorMessage":       errorMessage,
		}).
		Where(sq.Eq{"ID": id, "Status": model.DeliveryPending}),
	)
	if err != nil {
		return errors.Wrap(err, "failed to finish delivery log")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to count rows affected")
	}
	if affected == 0 {
		return model.ErrIllegalTransition
	}
	return nil
}

// GetDeliveryLog fetches a DeliveryLog by id.
func (sqlStore *SQLStore) GetDeliveryLog(id string) (*model.DeliveryLog, error) {
	var log model.DeliveryLog
	err := sqlStore.getBuilder(sqlStore.db, &log, deliveryLogSelect.Where("ID = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delivery log")
	}
	return &log, nil
}

// GetDeliveryLogsForEvent returns every DeliveryLog for an event, newest
// attempt first, for the event inspection endpoint.
func (sqlStore *SQLStore) GetDeliveryLogsForEvent(eventID string) ([]*model.DeliveryLog, error) {
	logs := []*model.DeliveryLog{}
	err := sqlStore.selectBuilder(sqlStore.db, &logs,
		deliveryLogSelect.Where("EventID = ?", eventID).OrderBy("AttemptedAt DESC"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query delivery logs for event")
	}
	return logs, nil
}

// GetDeliveryLogs returns DeliveryLogs matching the given filter, newest
// attempt first.
func (sqlStore *SQLStore) GetDeliveryLogs(filter *model.DeliveryLogFilter) ([]*model.DeliveryLog, error) {
	query := deliveryLogSelect.OrderBy("AttemptedAt DESC")

	if filter.EventID != "" {
		query = query.Where("EventID = ?", filter.EventID)
	}
	if filter.SubscriptionID != "" {
		query = query.Where("SubscriptionID = ?", filter.SubscriptionID)
	}
	if filter.Status != "" {
		query = query.Where("Status = ?", filter.Status)
	}
	if filter.StartDate > 0 {
		query = query.Where(sq.GtOrEq{"AttemptedAt": filter.StartDate})
	}
	if filter.EndDate > 0 {
		query = query.Where(sq.LtOrEq{"AttemptedAt": filter.EndDate})
	}
	if filter.EventType != "" {
		query = query.
			Join("Event ON Event.ID = DeliveryLog.EventID").
			Where("Event.EventType = ?", filter.EventType)
	}
	if filter.Paging.PerPage != model.AllPerPage {
		query = query.
			Limit(uint64(filter.Paging.PerPage)).
			Offset(uint64(filter.Paging.Page * filter.Paging.PerPage))
	}

	logs := []*model.DeliveryLog{}
	err := sqlStore.selectBuilder(sqlStore.db, &logs, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query delivery logs")
	}
	return logs, nil
}

// CountDeliveries returns (total, success, failed, pending) counts for the
// admin stats endpoint.
func (sqlStore *SQLStore) CountDeliveries() (total, success, failed, pending int64, err error) {
	counts := map[string]*int64{
		"":                          &total,
		string(model.DeliverySuccess): &success,
		string(model.DeliveryFailed):  &failed,
		string(model.DeliveryPending): &pending,
	}

	for status, dest := range counts {
		query := sq.Select("COUNT(*) as count").From(deliveryLogTable)
		if status != "" {
			query = query.Where("Status = ?", status)
		}

		var result countResult
		selErr := sqlStore.selectBuilder(sqlStore.db, &result, query)
		if selErr != nil {
			return 0, 0, 0, 0, errors.Wrap(selErr, "failed to count deliveries")
		}
		value, valErr := result.value()
		if valErr != nil {
			return 0, 0, 0, 0, valErr
		}
		*dest = value
	}

	return total, success, failed, pending, nil
}

// CountDeadLetters returns the number of (event, subscription) pairs whose
// most recent delivery attempt is a terminal failure: permanently stuck
// deliveries an operator would want to see without re-deriving the
// projection client-side.
func (sqlStore *SQLStore) CountDeadLetters() (int64, error) {
	latestAttempt := sq.Select("EventID, SubscriptionID, MAX(AttemptCount) as MaxAttempt").
		From(deliveryLogTable).
		GroupBy("EventID, SubscriptionID")

	latestSQL, _, err := latestAttempt.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "failed to build latest-attempt subquery")
	}

	query := sq.Select("COUNT(*) as count").
		From(deliveryLogTable + " dl").
		Join("(" + latestSQL + ") latest ON dl.EventID = latest.EventID AND dl.SubscriptionID = latest.SubscriptionID AND dl.AttemptCount = latest.MaxAttempt").
		Where("dl.Status = ?", model.DeliveryFailed)

	var result countResult
	err = sqlStore.selectBuilder(sqlStore.db, &result, query)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count dead letters")
	}
	return result.value()
}
