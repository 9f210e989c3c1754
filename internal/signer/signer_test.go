// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	secret := []byte("a-very-secret-value-used-in-tests")
	body := []byte(`{"hello":"world"}`)

	signature := Sign(secret, body)
	require.True(t, strHasPrefix(signature, "sha256="))
	require.True(t, Verify(secret, body, signature))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	secret := []byte("a-very-secret-value-used-in-tests")
	signature := Sign(secret, []byte(`{"hello":"world"}`))

	require.False(t, Verify(secret, []byte(`{"hello":"mallory"}`), signature))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	signature := Sign([]byte("secret-a"), body)

	require.False(t, Verify([]byte("secret-b"), body, signature))
}

func strHasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
