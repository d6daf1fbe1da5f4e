package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "HIGH", want: PriorityHigh},
		{in: " medium ", want: PriorityMedium},
		{in: "low", want: PriorityLow},
		{in: "urgent", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownPriority) {
				t.Fatalf("ParsePriority(%q): expected ErrUnknownPriority, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParsePriority(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestPriorityRankFollowsDeclarationOrder(t *testing.T) {
	if !(PriorityHigh.Rank() < PriorityMedium.Rank() && PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Fatalf("unexpected ranks: high=%d medium=%d low=%d", PriorityHigh.Rank(), PriorityMedium.Rank(), PriorityLow.Rank())
	}
	if Priority("URGENT").Rank() != -1 {
		t.Fatalf("expected -1 rank for unknown priority")
	}
}

func TestStatusScanRejectsUnknownValue(t *testing.T) {
	var s Status
	if err := s.Scan([]byte("IN_PROGRESS")); err != nil || s != StatusInProgress {
		t.Fatalf("scan IN_PROGRESS: got %q, %v", s, err)
	}
	if err := s.Scan("ARCHIVED"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if err := s.Scan(nil); err == nil {
		t.Fatalf("expected error scanning NULL status")
	}
}

func TestPriorityValueRejectsUnknown(t *testing.T) {
	if _, err := Priority("").Value(); !errors.Is(err, ErrUnknownPriority) {
		t.Fatalf("expected ErrUnknownPriority, got %v", err)
	}
	v, err := PriorityLow.Value()
	if err != nil || v != "LOW" {
		t.Fatalf("Value() = %v, %v", v, err)
	}
}

func TestStatusJSON(t *testing.T) {
	var payload struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"completed"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Status != StatusCompleted {
		t.Fatalf("got %q", payload.Status)
	}
	if err := json.Unmarshal([]byte(`{"status":"nope"}`), &payload); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestUserViewOmitsHash(t *testing.T) {
	u := &User{ID: 7, Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"}
	raw, err := json.Marshal(u.View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["password_hash"]; ok {
		t.Fatalf("view leaked password hash: %s", raw)
	}
	for _, v := range decoded {
		if v == "secret-hash" {
			t.Fatalf("view leaked password hash: %s", raw)
		}
	}
}
