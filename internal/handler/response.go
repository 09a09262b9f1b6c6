package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"aternotes/internal/middleware"
	"aternotes/internal/service"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds JSON request bodies. Guide Markdown is the largest payload.
const maxBodyBytes = 1 << 20

// statusFor maps a service error code to an HTTP status.
func statusFor(code service.Code) int {
	switch code {
	case service.CodeValidation, service.CodeInvalidTransition:
		return http.StatusBadRequest
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict:
		return http.StatusConflict
	case service.CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// serviceError converts a service failure into an AppError. Anonymous callers
// get 401 instead of 403 so clients know to log in.
func serviceError(err error, actor service.Actor) *middleware.AppError {
	code := service.CodeOf(err)
	status := statusFor(code)
	if code == service.CodeForbidden && actor.IsAnonymous() {
		status = http.StatusUnauthorized
	}
	return &middleware.AppError{Error: err, Message: service.MessageOf(err), Code: status, Kind: code}
}

func badRequest(err error, message string) *middleware.AppError {
	return &middleware.AppError{Error: err, Message: message, Code: http.StatusBadRequest, Kind: service.CodeValidation}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *middleware.AppError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest(err, "request body is required")
		}
		return badRequest(err, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// pathID parses a positive numeric route parameter.
func pathID(r *http.Request, name string) (int64, *middleware.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(err, fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}
