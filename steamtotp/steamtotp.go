// Copyright (c) 2025 BVK Chaitanya

// Package steamtotp generates the time-based two-factor codes used by the
// Steam Guard mobile authenticator.
package steamtotp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Period is the validity interval of a code.
const Period = 30 * time.Second

const codeChars = "23456789BCDFGHJKMNPQRTVWXY"

const codeLength = 5

// AuthCode returns the two-factor code for the base64 encoded shared secret
// valid at the given time.
func AuthCode(sharedSecret string, at time.Time) (string, error) {
	key, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", fmt.Errorf("could not base64-decode shared secret: %w", err)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("shared secret cannot be empty")
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(at.Unix()/int64(Period/time.Second)))

	mac := hmac.New(sha1.New, key)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	full := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeChars[full%uint32(len(codeChars))]
		full /= uint32(len(codeChars))
	}
	return string(code), nil
}

// Now returns the two-factor code valid at the current time.
func Now(sharedSecret string) (string, error) {
	return AuthCode(sharedSecret, time.Now())
}

// Remaining returns the time left before the code valid at the given time
// expires.
func Remaining(at time.Time) time.Duration {
	secs := int64(Period / time.Second)
	return time.Duration(secs-at.Unix()%secs) * time.Second
}
