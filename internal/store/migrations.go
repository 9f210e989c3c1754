// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package store

import (
	"github.com/blang/semver"
)

type migration struct {
	fromVersion   semver.Version
	toVersion     semver.Version
	migrationFunc func(execer) error
}

// migrations defines the set of migrations necessary to advance the database
// to the latest expected version.
//
// Note that the canonical schema is currently obtained by applying all
// migrations to an empty database.
var migrations = []migration{
	{semver.MustParse("0.0.0"), semver.MustParse("0.1.0"), func(e execer) error {
		_, err := e.Exec(`
			CREATE TABLE System (
				Key VARCHAR(64) PRIMARY KEY,
				Value VARCHAR(1024) NULL
			);
		`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`
			CREATE TABLE Event (
				ID CHAR(26) PRIMARY KEY,
				IdempotencyKey VARCHAR(255) NOT NULL UNIQUE,
				EventType VARCHAR(255) NOT NULL,
				Payload BYTEA NULL,
				ReceivedAt BIGINT NOT NULL
			);
		`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`CREATE INDEX IDX_Event_EventType ON Event (EventType);`)
		if err != nil {
			return err
		}
		_, err = e.Exec(`CREATE INDEX IDX_Event_ReceivedAt ON Event (ReceivedAt);`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`
			CREATE TABLE Subscription (
				ID CHAR(26) PRIMARY KEY,
				EventType VARCHAR(255) NOT NULL,
				TargetURL VARCHAR(2048) NOT NULL,
				SecretKey VARCHAR(255) NOT NULL,
				IsActive BOOLEAN NOT NULL,
				CreatedAt BIGINT NOT NULL,
				UpdatedAt BIGINT NOT NULL
			);
		`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`CREATE INDEX IDX_Subscription_EventType_IsActive ON Subscription (EventType, IsActive);`)
		if err != nil {
			return err
		}

		// Partial unique index enforcing at most one active subscription per
		// (EventType, TargetURL) pair. SQLite and Postgres both support
		// partial indexes with this syntax.
		_, err = e.Exec(`
			CREATE UNIQUE INDEX IDX_Subscription_Active_Unique
			ON Subscription (EventType, TargetURL)
			WHERE IsActive = true;
		`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`
			CREATE TABLE DeliveryLog (
				ID CHAR(26) PRIMARY KEY,
				EventID CHAR(26) NOT NULL,
				SubscriptionID CHAR(26) NOT NULL,
				Status VARCHAR(16) NOT NULL,
				AttemptCount INTEGER NOT NULL,
				AttemptedAt BIGINT NOT NULL,
				ResponseStatusCode INTEGER NULL,
				ResponseBody VARCHAR(1000) NULL,
				ErrorMessage VARCHAR(1024) NULL
			);
		`)
		if err != nil {
			return err
		}

		_, err = e.Exec(`CREATE INDEX IDX_DeliveryLog_AttemptedAt ON DeliveryLog (AttemptedAt);`)
		if err != nil {
			return err
		}
		_, err = e.Exec(`CREATE INDEX IDX_DeliveryLog_Event_Subscription ON DeliveryLog (EventID, SubscriptionID);`)
		if err != nil {
			return err
		}
		_, err = e.Exec(`CREATE INDEX IDX_DeliveryLog_Status ON DeliveryLog (Status);`)
		if err != nil {
			return err
		}

		return nil
	}},
}
