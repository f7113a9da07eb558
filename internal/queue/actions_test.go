package queue_test

import (
	"errors"
	"testing"

	"atelier/internal/queue"
)

func TestParseActionNormalizesLabels(t *testing.T) {
	cases := map[string]queue.Status{
		"Start Sampling":     queue.Approved(queue.PhaseSampling),
		"review":             queue.Approved(queue.PhaseSampling),
		"generate-tech-pack": queue.Approved(queue.PhaseTechPack),
		"Approve Production": queue.Approved(queue.PhasePreProduction),
		"CREATE_LISTING":     queue.Approved(queue.PhaseMarketplacePrep),
		"Quick Reject":       queue.Rejected(),
		"reject":             queue.Rejected(),
		"  hold ":            queue.Approved(queue.PhaseHold),
	}
	for raw, want := range cases {
		action, err := queue.ParseAction(raw)
		if err != nil {
			t.Fatalf("ParseAction(%q): %v", raw, err)
		}
		if action.Target != want {
			t.Fatalf("ParseAction(%q) target %s, want %s", raw, action.Target, want)
		}
	}
}

func TestParseActionUnknown(t *testing.T) {
	for _, raw := range []string{"", "publish", "resume", "delete"} {
		_, err := queue.ParseAction(raw)
		if !errors.Is(err, queue.ErrUnknownAction) {
			t.Fatalf("ParseAction(%q): expected ErrUnknownAction, got %v", raw, err)
		}
		if queue.ErrorKindOf(err) != queue.KindUnknownAction {
			t.Fatalf("unexpected kind %q", queue.ErrorKindOf(err))
		}
	}
}

func TestOnlyBoundaryActionsNotifyOwner(t *testing.T) {
	notifying := map[string]bool{
		queue.ActionCreateListing: true,
		queue.ActionReject:        true,
	}
	for _, action := range queue.Actions() {
		if action.NotifiesOwner != notifying[action.Token] {
			t.Fatalf("%s: NotifiesOwner=%v", action.Token, action.NotifiesOwner)
		}
	}
	if len(queue.Actions()) != 6 {
		t.Fatalf("expected six operator actions, got %d", len(queue.Actions()))
	}
}

func TestActionsForFollowsReviewState(t *testing.T) {
	tokens := func(actions []queue.Action) []string {
		var out []string
		for _, action := range actions {
			out = append(out, action.Token)
		}
		return out
	}

	pending := tokens(queue.ActionsFor(queue.Pending()))
	if len(pending) != 2 || pending[0] != queue.ActionStartSampling || pending[1] != queue.ActionReject {
		t.Fatalf("pending item actions = %v", pending)
	}
	if got := queue.ActionsFor(queue.Approved(queue.PhaseHold)); len(got) != len(queue.Actions()) {
		t.Fatalf("approved item should accept every action, got %v", tokens(got))
	}
	for _, terminal := range []queue.Status{queue.Rejected(), queue.Published()} {
		if got := queue.ActionsFor(terminal); len(got) != 0 {
			t.Fatalf("%s should accept no actions, got %v", terminal, tokens(got))
		}
	}

	createListing, err := queue.ParseAction("create listing")
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if createListing.AllowedFrom(queue.Pending()) {
		t.Fatal("create listing should need an approved item")
	}
	if !createListing.AllowedFrom(queue.Approved(queue.PhaseSampling)) {
		t.Fatal("create listing should be allowed from sampling")
	}
}
