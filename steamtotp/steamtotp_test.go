// Copyright (c) 2025 BVK Chaitanya

package steamtotp

import (
	"strings"
	"testing"
	"time"
)

// Base64 of the RFC 6238 test secret "12345678901234567890".
const testSecret = "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA="

func TestAuthCode(t *testing.T) {
	testCases := []struct {
		unix int64
		want string
	}{
		{0, "GG5F5"},
		{59, "PV9M4"},
		{1700000000, "R87JJ"},
		{1700000029, "5MWGC"},
		{1700000030, "5MWGC"},
	}
	for _, tc := range testCases {
		code, err := AuthCode(testSecret, time.Unix(tc.unix, 0))
		if err != nil {
			t.Fatal(err)
		}
		if code != tc.want {
			t.Errorf("at %d: want %q, got %q", tc.unix, tc.want, code)
		}
	}
}

func TestAuthCodeAlphabet(t *testing.T) {
	now := time.Now()
	for i := 0; i < 100; i++ {
		code, err := AuthCode(testSecret, now.Add(time.Duration(i)*Period))
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != codeLength {
			t.Fatalf("want %d chars, got %q", codeLength, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeChars, c) {
				t.Fatalf("code %q has invalid character %q", code, c)
			}
		}
	}
}

func TestAuthCodeInvalidSecret(t *testing.T) {
	if _, err := AuthCode("not base64!", time.Now()); err == nil {
		t.Fatalf("want error for invalid secret")
	}
	if _, err := AuthCode("", time.Now()); err == nil {
		t.Fatalf("want error for empty secret")
	}
}

func TestRemaining(t *testing.T) {
	if d := Remaining(time.Unix(1700000000, 0)); d != 10*time.Second {
		t.Fatalf("want 10s, got %v", d)
	}
	if d := Remaining(time.Unix(60, 0)); d != Period {
		t.Fatalf("want %v, got %v", Period, d)
	}
}
