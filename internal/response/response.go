package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staynest/service-booking/internal/domain"
)

// Envelope is the common shape of every JSON response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable code alongside the human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 with a validation error body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(domain.CodeValidation), Message: message},
	})
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: "UNAUTHORIZED", Message: message},
	})
}

// Error maps a domain error to its HTTP status. Unknown errors become 500
// without leaking internals.
func Error(c *gin.Context, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		c.JSON(http.StatusInternalServerError, Envelope{
			Success: false,
			Error:   &ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case domain.CodeValidation, domain.CodeInvalidRange:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeNotAuthorized:
		status = http.StatusForbidden
	case domain.CodeDateConflict, domain.CodeConflict, domain.CodeInvalidTransition, domain.CodeDuplicateReview:
		status = http.StatusConflict
	}

	c.JSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(domainErr.Code), Message: domainErr.Message},
	})
}
