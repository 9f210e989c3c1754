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

const eventTable = "Event"

var eventColumns = []string{"ID", "IdempotencyKey", "EventType", "Payload", "ReceivedAt"}

var eventSelect = sq.Select(eventColumns...).From(eventTable)

// CreateEvent inserts a new Event keyed by its idempotency key. If an Event
// with the same idempotency key already exists, the existing row is
// returned alongside model.ErrDuplicateIdempotencyKey so the caller can
// distinguish a fresh insert from a replay without a second round trip.
func (sqlStore *SQLStore) CreateEvent(event *model.Event) error {
	event.ID = model.NewID()

	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(eventTable).
		SetMap(map[string]interface{}{
			"ID":             event.ID,
			"IdempotencyKey": event.IdempotencyKey,
			"EventType":      event.EventType,
			"Payload":        model.RawJSON(event.Payload),
			"ReceivedAt":     event.ReceivedAt,
		}),
	)
	if err != nil {
		if isUniqueConstraintViolation(errors.Cause(err)) {
			existing, getErr := sqlStore.GetEventByIdempotencyKey(event.IdempotencyKey)
			if getErr != nil {
				return errors.Wrap(getErr, "failed to load existing event after duplicate idempotency key")
			}
			*event = *existing
			return model.ErrDuplicateIdempotencyKey
		}
		return errors.Wrap(err, "failed to create event")
	}

	return nil
}

// GetEvent fetches an Event by id.
func (sqlStore *SQLStore) GetEvent(id string) (*model.Event, error) {
	var event model.Event
	err := sqlStore.getBuilder(sqlStore.db, &event, eventSelect.Where("ID = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get event")
	}
	return &event, nil
}

// GetEventByIdempotencyKey fetches an Event by its idempotency key.
func (sqlStore *SQLStore) GetEventByIdempotencyKey(idempotencyKey string) (*model.Event, error) {
	var event model.Event
	err := sqlStore.getBuilder(sqlStore.db, &event, eventSelect.Where("IdempotencyKey = ?", idempotencyKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get event by idempotency key")
	}
	return &event, nil
}

// CountEvents returns the total number of events stored, for the admin
// stats endpoint.
func (sqlStore *SQLStore) CountEvents() (int64, error) {
	var result countResult
	err := sqlStore.selectBuilder(sqlStore.db, &result, sq.Select("COUNT(*) as count").From(eventTable))
	if err != nil {
		return 0, errors.Wrap(err, "failed to count events")
	}
	return result.value()
}
