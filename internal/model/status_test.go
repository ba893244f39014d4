package model

import (
	"encoding/json"
	"testing"
)

func TestClaimStatusWireRoundTrip(t *testing.T) {
	statuses := []ClaimStatus{StatusOpen, StatusClaimed, StatusSubmitted, StatusCompleted, StatusRejected, StatusExpired}
	for _, s := range statuses {
		if got := ClaimStatusFromWire(s.Wire()); got != s {
			t.Errorf("round trip %v: got %v", s, got)
		}
	}
}

func TestClaimStatusFromWire_Unknown(t *testing.T) {
	if got := ClaimStatusFromWire(99); got != StatusOpen {
		t.Errorf("unknown code mapped to %v, want StatusOpen", got)
	}
}

func TestClaimStatusDisplay(t *testing.T) {
	cases := []struct {
		status ClaimStatus
		label  string
	}{
		{StatusClaimed, "in progress"},
		{StatusSubmitted, "pending review"},
		{StatusCompleted, "completed"},
		{StatusRejected, "rejected"},
		{StatusExpired, "expired"},
	}
	for _, c := range cases {
		if got := c.status.Display().Label; got != c.label {
			t.Errorf("Display(%v).Label = %q, want %q", c.status, got, c.label)
		}
		if c.status.String() != c.label {
			t.Errorf("String(%v) = %q, want %q", c.status, c.status.String(), c.label)
		}
	}
}

func TestClaimStatusTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusExpired.Terminal() {
		t.Error("completed and expired must be terminal")
	}
	if StatusClaimed.Terminal() || StatusSubmitted.Terminal() || StatusRejected.Terminal() {
		t.Error("claimed, submitted and rejected must not be terminal")
	}
}

func TestClaimStatusJSON(t *testing.T) {
	var rec AcceptanceRecord
	raw := `{"record_id":"r1","b_task_id":101,"status":2}`
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Status != StatusSubmitted {
		t.Errorf("status = %v, want StatusSubmitted", rec.Status)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AcceptanceRecord
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if back.Status != StatusSubmitted {
		t.Errorf("status after round trip = %v, want StatusSubmitted", back.Status)
	}
}

func TestClaimStatusJSON_Quoted(t *testing.T) {
	var s ClaimStatus
	if err := json.Unmarshal([]byte(`"4"`), &s); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if s != StatusRejected {
		t.Errorf("status = %v, want StatusRejected", s)
	}
}

func TestEnvelopeOK(t *testing.T) {
	cases := []struct {
		env  Envelope
		want bool
	}{
		{Envelope{Code: 0}, true},
		{Envelope{Code: 1001, Message: "already claimed"}, false},
		{Envelope{Code: 5, Success: true}, true},
	}
	for _, c := range cases {
		if got := c.env.OK(); got != c.want {
			t.Errorf("OK(code=%d, success=%v) = %v, want %v", c.env.Code, c.env.Success, got, c.want)
		}
	}
}
