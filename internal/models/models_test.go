package models

import (
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestBaseModelKeepsExistingID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID != "fixed" {
		t.Fatalf("expected ID to be preserved, got %q", base.ID)
	}
}

func TestFinancialProfileHasQuestionnaire(t *testing.T) {
	cases := []struct {
		name    string
		profile *FinancialProfile
		want    bool
	}{
		{"nil profile", nil, false},
		{"empty", &FinancialProfile{}, false},
		{"null json", &FinancialProfile{Responses: datatypes.JSON("null")}, false},
		{"empty object", &FinancialProfile{Responses: datatypes.JSON("{}")}, false},
		{"answers", &FinancialProfile{Responses: datatypes.JSON(`{"age":"30-40"}`)}, true},
	}
	for _, tc := range cases {
		if got := tc.profile.HasQuestionnaire(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if (CacheEntry{}).Expired(now) {
		t.Fatal("entries without expiry never expire")
	}
	if (CacheEntry{ExpiresAt: now}).Expired(now) {
		t.Fatal("entry is valid at its expiry instant")
	}
	if !(CacheEntry{ExpiresAt: now.Add(-time.Second)}).Expired(now) {
		t.Fatal("expected entry to be expired")
	}
}

func TestBaseModelIDsSortByCreation(t *testing.T) {
	var first, second BaseModel
	if err := first.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := second.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if first.ID >= second.ID {
		t.Fatalf("expected %q to sort before %q", first.ID, second.ID)
	}
}

func TestSessionActive(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)

	cases := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil", nil, false},
		{"live", &Session{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", &Session{ExpiresAt: now}, false},
		{"revoked", &Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}
	for _, tc := range cases {
		if got := tc.session.Active(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
