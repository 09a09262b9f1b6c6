package middleware

import (
	"fmt"
	"net/http"

	"aternotes/internal/logger"
	"aternotes/internal/service"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
	Kind    service.Code // machine-readable code in the response envelope
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Error is a middleware that converts handler errors into JSON error envelopes
// and recovers from panics.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					WriteError(w, r, http.StatusInternalServerError, service.CodePersistence, "an internal error occurred")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else if appErr.Error != nil {
				log.Debug(fmt.Sprintf("%s: %v", appErr.Message, appErr.Error))
			}
			kind := appErr.Kind
			if kind == "" {
				kind = service.CodePersistence
			}
			WriteError(w, r, appErr.Code, kind, appErr.Message)
		})
	}
}
