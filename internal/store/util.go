// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// isUniqueConstraintViolation checks if the error is a unique constraint
// violation, recognizing both the postgres and sqlite3 driver error shapes
// so the same store code runs unmodified against either dialect.
func isUniqueConstraintViolation(err error) bool {
	if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
		return true
	}
	if liteErr, ok := err.(sqlite3.Error); ok && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return true
	}
	return false
}
