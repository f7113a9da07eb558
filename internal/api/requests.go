package api

import (
	"strings"

	"atelier/internal/queue"
	"atelier/internal/workflow"
)

// ToApplyRequest validates the transport request and builds the workflow
// request for itemID. Unknown actions are reported before missing fields.
func (r ApplyActionRequest) ToApplyRequest(itemID string) (workflow.ApplyRequest, error) {
	if _, err := queue.ParseAction(r.Action); err != nil {
		return workflow.ApplyRequest{}, err
	}
	expectedRaw := strings.TrimSpace(r.ExpectedStatus)
	if expectedRaw == "" {
		return workflow.ApplyRequest{}, &queue.TransitionError{
			Kind:   queue.KindValidation,
			ItemID: itemID,
			Reason: "expectedStatus is required; re-read the item and send the status you saw",
		}
	}
	expected, err := queue.ParseStatusString(expectedRaw)
	if err != nil {
		return workflow.ApplyRequest{}, &queue.TransitionError{
			Kind:   queue.KindValidation,
			ItemID: itemID,
			Reason: "expectedStatus: " + err.Error(),
		}
	}
	return workflow.ApplyRequest{
		ItemID:   itemID,
		Action:   r.Action,
		ActorID:  strings.TrimSpace(r.ActorID),
		Notes:    r.Notes,
		Expected: expected,
	}, nil
}

// ToSubmission converts an intake request.
func (r SubmitRequest) ToSubmission(actorID string) queue.Submission {
	return queue.Submission{
		Title:    r.Title,
		OwnerID:  r.OwnerID,
		Metadata: r.Metadata,
		ActorID:  actorID,
	}
}
