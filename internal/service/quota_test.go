package service

import (
	"sat_prep_backend/internal/model"
	"strings"
	"testing"
)

func TestAttemptQuota(t *testing.T) {
	cases := []struct {
		accountType model.AccountType
		want        int
	}{
		{model.Admin, UnlimitedAttempts},
		{model.Mentor, UnlimitedAttempts},
		{model.Student, 3},
		{model.Free, 1},
		{model.AccountType("trial"), 1}, // unknown tiers fall back to the strictest quota
	}
	for _, tc := range cases {
		if got := AttemptQuota(tc.accountType); got != tc.want {
			t.Errorf("AttemptQuota(%s) = %d, want %d", tc.accountType, got, tc.want)
		}
	}
}

func TestCanStartAttempt(t *testing.T) {
	cases := []struct {
		name        string
		accountType model.AccountType
		completed   int
		wantAllowed bool
	}{
		{"free first attempt", model.Free, 0, true},
		{"free exhausted", model.Free, 1, false},
		{"student below quota", model.Student, 2, true},
		{"student exhausted", model.Student, 3, false},
		{"student over quota", model.Student, 5, false},
		{"admin never limited", model.Admin, 1000, true},
		{"mentor never limited", model.Mentor, 1000, true},
		{"unknown tier exhausted", model.AccountType("trial"), 1, false},
	}
	for _, tc := range cases {
		d := CanStartAttempt(tc.accountType, tc.completed)
		if d.Allowed != tc.wantAllowed {
			t.Errorf("%s: Allowed = %v, want %v", tc.name, d.Allowed, tc.wantAllowed)
		}
		if !d.Allowed && d.Reason == "" {
			t.Errorf("%s: denial must carry a reason", tc.name)
		}
	}
}

func TestCanStartAttemptDenialDetails(t *testing.T) {
	d := CanStartAttempt(model.Free, 1)
	if d.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", d.MaxAttempts)
	}
	if !d.UpgradeEligible {
		t.Error("free tier denial should be flagged upgrade eligible")
	}
	if !strings.Contains(d.Reason, "free") {
		t.Errorf("reason should name the tier, got %q", d.Reason)
	}

	d = CanStartAttempt(model.Student, 3)
	if d.UpgradeEligible {
		t.Error("student tier denial should not be flagged upgrade eligible")
	}
	if d.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", d.MaxAttempts)
	}
}
