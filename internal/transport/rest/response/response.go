package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/EABruton/waitlist/internal/domain"
)

// Envelope is the success envelope:
// {"data": ...}
type Envelope struct {
	Data any `json:"data,omitempty"`
}

// ErrorBody is the failure envelope:
// {"error":{"code":"...","message":"...","meta":{...},"request_id":"..."}}
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// JSON writes raw JSON with Content-Type.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps payload with {"data": ...}
func Data(w http.ResponseWriter, status int, payload any) {
	JSON(w, status, Envelope{Data: payload})
}

// Fail writes the error body with an explicit status.
func Fail(w http.ResponseWriter, status int, code, message string, meta map[string]string, requestID string) {
	JSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			Meta:      meta,
			RequestID: requestID,
		},
	})
}

// Err maps an application error to its status code and writes the error
// body. Only Code, Message and Meta are serialized; the wrapped cause
// stays server-side.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var ae *domain.AppError
	if !errors.As(err, &ae) {
		Fail(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil, reqID)
		return
	}
	Fail(w, StatusFromCode(ae.Code), string(ae.Code), ae.Message, ae.Meta, reqID)
}

// StatusFromCode is the one place error kinds become HTTP statuses.
func StatusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodePartyNotFound:
		return http.StatusNotFound
	case domain.CodePartyCreate,
		domain.CodePartyDelete,
		domain.CodePartyCheckIn,
		domain.CodePartySetSeated:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
