// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api_test

import (
	"context"

	"github.com/webhookrelay/relay/model"
)

// fakeAPIQueue is a no-op Queue for tests that exercise the HTTP surface
// against a real store without a live Redis.
type fakeAPIQueue struct {
	fanoutCalls   int
	deliveryCalls int
}

func (f *fakeAPIQueue) EnqueueFanout(ctx context.Context, eventID, eventType string) error {
	f.fanoutCalls++
	return nil
}

func (f *fakeAPIQueue) EnqueueDelivery(ctx context.Context, eventID, subscriptionID string) error {
	f.deliveryCalls++
	return nil
}

type fakeAPIRetrier struct {
	err error
}

func (f *fakeAPIRetrier) Retry(ctx context.Context, logID string) error {
	return f.err
}
