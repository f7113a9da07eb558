package api

import (
	"errors"
	"net/http"

	"atelier/internal/queue"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeUnknownAction = queue.KindUnknownAction
	CodeNotFound      = queue.KindNotFound
	CodeConflict      = queue.KindConflict
	CodeTerminal      = queue.KindTerminal
	CodeValidation    = queue.KindValidation
	CodeUnauthorized  = "unauthorized"
	CodeInternal      = "internal"
)

// ErrorResponse is the body of every refused request.
type ErrorResponse struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	// Retryable tells clients to re-fetch the item and redisplay instead of
	// treating the refusal as a hard failure.
	Retryable     bool   `json:"retryable"`
	CurrentStatus string `json:"currentStatus,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// ErrorFor maps an error to its HTTP status and response body.
func ErrorFor(err error) (int, ErrorResponse) {
	var transitionErr *queue.TransitionError
	if !errors.As(err, &transitionErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Code:   CodeInternal,
			Reason: "The request could not be completed. Try again shortly.",
			Detail: errorDetail(err),
		}
	}

	resp := ErrorResponse{Code: transitionErr.Kind, Detail: transitionErr.Error()}
	if !transitionErr.Current.IsZero() {
		resp.CurrentStatus = transitionErr.Current.String()
	}
	switch transitionErr.Kind {
	case queue.KindUnknownAction:
		resp.Reason = "That action does not exist."
		return http.StatusUnprocessableEntity, resp
	case queue.KindNotFound:
		resp.Reason = "This item no longer exists."
		return http.StatusNotFound, resp
	case queue.KindConflict:
		resp.Reason = "Someone else changed this item while you were looking at it. Reload it and try again."
		resp.Retryable = true
		return http.StatusConflict, resp
	case queue.KindTerminal:
		resp.Reason = "This item is already finalized and cannot change."
		return http.StatusConflict, resp
	case queue.KindValidation:
		resp.Reason = "The request was refused: " + transitionErr.Reason
		if transitionErr.Reason == "" {
			resp.Reason = "The request was refused."
		}
		return http.StatusBadRequest, resp
	default:
		resp.Code = CodeInternal
		resp.Reason = "The request could not be completed. Try again shortly."
		return http.StatusInternalServerError, resp
	}
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
