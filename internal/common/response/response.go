package response

import (
	"errors"
	"net/http"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination metadata.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessMessage writes a 200 response with a message and optional data.
func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with items and paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, ErrorBody{Kind: string(domain.KindValidation), Code: "bad_request", Message: message})
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, ErrorBody{Kind: string(domain.KindUnauthorized), Code: "unauthorized", Message: message})
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, ErrorBody{Kind: string(domain.KindForbidden), Code: "forbidden", Message: message})
}

// TooManyRequests writes a 429 response.
func TooManyRequests(c *gin.Context) {
	abort(c, http.StatusTooManyRequests, ErrorBody{Kind: "rate_limited", Code: "rate_limited", Message: "too many requests"})
}

// Error maps an application error to its HTTP status and writes it.
// Untyped errors are reported as 503 without leaking their text.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		abort(c, http.StatusServiceUnavailable, ErrorBody{
			Kind:    string(domain.KindUnavailable),
			Code:    "unavailable",
			Message: "service temporarily unavailable",
		})
		return
	}

	body := ErrorBody{Kind: string(appErr.Kind), Code: appErr.Code, Message: appErr.Message}
	if appErr.Kind == domain.KindUnavailable {
		_ = c.Error(err)
		body.Message = "service temporarily unavailable"
	}
	abort(c, StatusFor(appErr.Kind), body)
}

// StatusFor returns the HTTP status code for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation, domain.KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func abort(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &body})
}
