// Package response implements the JSON envelope every endpoint speaks:
//
//	{"data": ..., "message": ..., "status": "success"}
//	{"error": {"message": ..., "code": ..., "details": ...}, "status": "error"}
package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/logger"
)

type successEnvelope struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

type errorEnvelope struct {
	Error  errorBody `json:"error"`
	Status string    `json:"status"`
}

type errorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{
		Data:    data,
		Message: message,
		Status:  "success",
	})
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, data, "")
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, nil, message)
}

// WriteError maps domain error kinds to HTTP statuses. Unknown error types
// become an opaque 500; their cause is logged, never serialized.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.WithCtx(r.Context()).Error().Err(err).Msg("unhandled error")
		de = domain.ErrInternal(err)
	}

	status := statusFor(de.Kind)
	if status >= 500 && de.Cause != nil {
		logger.WithCtx(r.Context()).Error().
			Err(de.Cause).
			Str("code", de.Code).
			Msg(de.Message)
	}

	if de.RetryAfter > 0 {
		secs := int64(de.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}

	body := errorBody{
		Message: de.Message,
		Code:    de.Code,
		Details: de.Details,
	}
	if status == http.StatusInternalServerError {
		// Keep internals out of 500 bodies.
		body = errorBody{Message: de.Message, Code: de.Code}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: body, Status: "error"})
}

func statusFor(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

const maxBodyBytes = 1 << 20

// DecodeJSON reads a bounded JSON body and rejects trailing garbage.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return domain.ErrInvalidJSON(errors.New("unexpected trailing data"))
	}
	return nil
}
