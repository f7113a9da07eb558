package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"atelier/internal/api"
	"atelier/internal/queue"
)

func TestErrorForMapsKinds(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		code      string
		retryable bool
	}{
		{&queue.TransitionError{Kind: queue.KindUnknownAction, Action: "resume"}, http.StatusUnprocessableEntity, api.CodeUnknownAction, false},
		{&queue.TransitionError{Kind: queue.KindNotFound, ItemID: "x"}, http.StatusNotFound, api.CodeNotFound, false},
		{&queue.TransitionError{Kind: queue.KindConflict, ItemID: "x", Current: queue.Rejected(), Expected: queue.Pending()}, http.StatusConflict, api.CodeConflict, true},
		{&queue.TransitionError{Kind: queue.KindTerminal, ItemID: "x", Current: queue.Published()}, http.StatusConflict, api.CodeTerminal, false},
		{&queue.TransitionError{Kind: queue.KindValidation, Reason: "actor id is required"}, http.StatusBadRequest, api.CodeValidation, false},
		{errors.New("disk I/O error"), http.StatusInternalServerError, api.CodeInternal, false},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("handler: %w", tc.err)
		status, body := api.ErrorFor(wrapped)
		if status != tc.status || body.Code != tc.code || body.Retryable != tc.retryable {
			t.Fatalf("%v: got %d/%s/%v", tc.err, status, body.Code, body.Retryable)
		}
		if body.Reason == "" {
			t.Fatalf("%v: expected a human-readable reason", tc.err)
		}
	}
}

func TestErrorForReportsCurrentStatus(t *testing.T) {
	_, body := api.ErrorFor(&queue.TransitionError{
		Kind:     queue.KindConflict,
		ItemID:   "x",
		Current:  queue.Approved(queue.PhaseMarketplacePrep),
		Expected: queue.Approved(queue.PhaseSampling),
	})
	if body.CurrentStatus != "approved/marketplace_prep" {
		t.Fatalf("unexpected current status %q", body.CurrentStatus)
	}
	if !strings.Contains(body.Reason, "Reload it") || strings.Contains(body.Reason, "has been loaded") {
		t.Fatalf("unexpected conflict reason %q", body.Reason)
	}
}
