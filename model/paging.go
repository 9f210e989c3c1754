// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

// Paging carries page/per_page bounds for a filtered list query. The
// relay's entities are hard-deleted (see Subscription's DeleteSubscription),
// so unlike paging schemes that also track a soft-delete flag, there is
// nothing else to carry here.
type Paging struct {
	Page    int
	PerPage int
}

// AllPagesNotDeleted is the paging filter for an unbounded listing, used
// internally by store queries that need every matching row regardless of
// the caller's own page size (e.g. subscription fan-out matching).
func AllPagesNotDeleted() Paging {
	return Paging{
		Page:    0,
		PerPage: AllPerPage,
	}
}
