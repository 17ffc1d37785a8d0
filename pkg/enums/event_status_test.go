package enums

import "testing"

func TestEventStatusValidity(t *testing.T) {
	for _, status := range []EventStatus{StatusPending, StatusDone, StatusFailed} {
		if !status.IsValid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if EventStatus("RUNNING").IsValid() {
		t.Fatal("unexpected status considered valid")
	}
}

func TestEventStatusTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !StatusDone.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Fatal("done and failed must be terminal")
	}
}

func TestParseEventStatus(t *testing.T) {
	status, err := ParseEventStatus("PENDING")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseEventStatus("pending"); err == nil {
		t.Fatal("expected lowercase input to be rejected")
	}
}
