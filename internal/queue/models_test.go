package queue_test

import (
	"encoding/json"
	"testing"

	"atelier/internal/queue"
)

func TestParseStatusRejectsInvalidPairs(t *testing.T) {
	cases := []struct {
		review string
		phase  string
	}{
		{"approved", ""},
		{"approved", "shipping"},
		{"pending", "sampling"},
		{"rejected", "hold"},
		{"published", "marketplace_prep"},
		{"archived", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := queue.ParseStatus(tc.review, tc.phase); err == nil {
			t.Fatalf("ParseStatus(%q, %q): expected error", tc.review, tc.phase)
		}
	}
}

func TestParseStatusStringRoundTrip(t *testing.T) {
	statuses := []queue.Status{
		queue.Pending(),
		queue.Approved(queue.PhaseSampling),
		queue.Approved(queue.PhaseTechPack),
		queue.Approved(queue.PhasePreProduction),
		queue.Approved(queue.PhaseMarketplacePrep),
		queue.Approved(queue.PhaseHold),
		queue.Published(),
		queue.Rejected(),
	}
	for _, status := range statuses {
		parsed, err := queue.ParseStatusString(status.String())
		if err != nil {
			t.Fatalf("ParseStatusString(%q): %v", status, err)
		}
		if parsed != status {
			t.Fatalf("round trip mismatch: %s != %s", parsed, status)
		}
	}
}

func TestStatusOnlyApprovedCarriesPhase(t *testing.T) {
	for _, status := range []queue.Status{queue.Pending(), queue.Rejected(), queue.Published()} {
		if status.Phase() != "" {
			t.Fatalf("%s should not carry a phase", status)
		}
	}
	if queue.Approved(queue.PhaseHold).Phase() != queue.PhaseHold {
		t.Fatal("approved status lost its phase")
	}
}

func TestStatusTerminal(t *testing.T) {
	if !queue.Published().IsTerminal() || !queue.Rejected().IsTerminal() {
		t.Fatal("published and rejected must be terminal")
	}
	if queue.Pending().IsTerminal() || queue.Approved(queue.PhaseHold).IsTerminal() {
		t.Fatal("pending and held items must not be terminal")
	}
}

func TestStatusJSONUsesWireForm(t *testing.T) {
	payload, err := json.Marshal(struct {
		Status queue.Status `json:"status"`
	}{queue.Approved(queue.PhaseTechPack)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"status":"approved/tech_pack"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded struct {
		Status queue.Status `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"pending/hold"}`), &decoded); err == nil {
		t.Fatal("expected pending with a phase to be rejected")
	}
}
