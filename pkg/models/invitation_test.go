package models

import (
	"testing"
	"time"
)

func TestInvitationIsExpired(t *testing.T) {
	expiry := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	inv := &Invitation{ExpiresAt: expiry}

	if inv.IsExpired(expiry.Add(-time.Second)) {
		t.Error("not expired before the deadline")
	}
	if inv.IsExpired(expiry) {
		t.Error("the deadline instant itself is still valid")
	}
	if !inv.IsExpired(expiry.Add(time.Second)) {
		t.Error("expired after the deadline")
	}
}

func TestInvitationIsExpired_ComparesInUTC(t *testing.T) {
	expiry := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	inv := &Invitation{ExpiresAt: expiry}

	// Same instant expressed in a non-UTC zone.
	east := time.FixedZone("UTC+3", 3*3600)
	sameInstant := time.Date(2026, 3, 8, 15, 0, 0, 0, east)
	if inv.IsExpired(sameInstant) {
		t.Error("zone conversion must not change the verdict")
	}
	if !inv.IsExpired(sameInstant.Add(time.Minute)) {
		t.Error("one minute past the deadline is expired in any zone")
	}
}
