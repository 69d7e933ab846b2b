package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/logger"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// ErrorEnvelope is the body written for every failed request.
type ErrorEnvelope struct {
	Error ErrorResponse `json:"error"`
}

// ErrorResponse describes a single failure.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err. AppErrors keep their code,
// message and status; validation and decode failures become 400s; anything
// else is logged and reported as a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	var decErr *validator.DecodeError
	if errors.As(err, &decErr) {
		WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorResponse{
			Code: "INVALID_INPUT", Message: decErr.Error(), RequestID: requestID,
		}})
		return
	}

	resp := ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred", RequestID: requestID}
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Code, resp.Message = appErr.Code, appErr.Message
	} else {
		switch status {
		case http.StatusNotFound:
			resp.Code, resp.Message = "NOT_FOUND", "resource not found"
		case http.StatusBadRequest:
			resp.Code, resp.Message = "INVALID_INPUT", "invalid input"
		case http.StatusUnauthorized:
			resp.Code, resp.Message = "UNAUTHORIZED", "unauthorized"
		case http.StatusForbidden:
			resp.Code, resp.Message = "FORBIDDEN", "forbidden"
		}
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorEnvelope{Error: resp})
}

// WriteValidationError writes a 400 for a failed decode or validation step.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorResponse{
		Code: "INVALID_INPUT", Message: err.Error(), RequestID: requestID,
	}})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorResponse{
		Code:      "VALIDATION_ERROR",
		Message:   "request validation failed",
		Fields:    valErr.Fields(),
		RequestID: requestID,
	}})
}
