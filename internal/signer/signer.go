// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package signer computes and verifies the HMAC-SHA256 signatures attached
// to outbound webhook deliveries.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"
)

// SignatureHeader is the header carrying the hex-encoded HMAC.
const SignatureHeader = "X-Signature"

// TimestampHeader is the header carrying the Unix-seconds signing time.
const TimestampHeader = "X-Timestamp"

// Sign computes "sha256=<hex>" over body using secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Timestamp returns the current Unix-seconds value for the X-Timestamp header.
func Timestamp(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}

// Verify reports whether signature matches the HMAC-SHA256 of body under
// secret, using a constant-time comparison to avoid leaking timing
// information about the secret.
func Verify(secret, body []byte, signature string) bool {
	expected := Sign(secret, body)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
