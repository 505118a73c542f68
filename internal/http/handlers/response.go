// Package handlers implements the HTTP handlers for the MediMinder API.
//
// Every endpoint speaks the same envelope: failures are an ErrorResponse with
// a stable machine-readable code, successes are plain JSON bodies. fail()
// owns error formatting and makes sure 5xx responses reach the request-scoped
// logger, so handlers never log errors themselves.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediminder/mediminder-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope every endpoint returns on failure.
// RequestID echoes the X-Request-ID header so a client report can be matched
// to server logs. Code is one of the constants in errors.go. Message is safe
// to surface to end users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with an ErrorResponse at the given status.
// Statuses >= 500 are logged through the request-scoped logger; client errors
// are the caller's to notice.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail for the router's NoRoute and NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
