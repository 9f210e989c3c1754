// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

const (
	driverPostgres = "postgres"
	driverSqlite   = "sqlite3" // standing driver for tests and single-node dev, per the ambient test-tooling stack.
)
