// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RawJSON is an arbitrary JSON document stored as a single column. It backs
// Event.Payload.
type RawJSON json.RawMessage

// Value implements driver.Valuer so a RawJSON can be written directly by
// the query builder.
func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// Scan implements sql.Scanner, reading back the column as either raw bytes
// or text.
func (r *RawJSON) Scan(databaseValue interface{}) error {
	switch value := databaseValue.(type) {
	case string:
		*r = RawJSON(value)
		return nil
	case []byte:
		cp := make([]byte, len(value))
		copy(cp, value)
		*r = RawJSON(cp)
		return nil
	case nil:
		*r = nil
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into RawJSON", databaseValue)
	}
}

// MarshalJSON allows RawJSON to marshal as the document it wraps.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON allows RawJSON to capture an arbitrary JSON value verbatim.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// SizeBytes returns the serialized length of the document.
func (r RawJSON) SizeBytes() int {
	return len(r)
}

// IsValidJSONObject reports whether the raw document decodes as a JSON object.
func IsValidJSONObject(r RawJSON) bool {
	if len(r) == 0 {
		return false
	}
	var v map[string]interface{}
	return json.Unmarshal(r, &v) == nil
}
