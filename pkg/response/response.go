package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON body for successful responses
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorEnvelope is the JSON body for error responses
type ErrorEnvelope struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success writes a 200 response with the given data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessWithMeta writes a 200 response with data and pagination metadata
func SuccessWithMeta(c *gin.Context, data, meta interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Meta: meta})
}

// Created writes a 201 response with the given data
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error writes an error response with the given status, code and message
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorEnvelope{Error: code, Message: message})
}

// ValidationFailed writes a 422 response with field-level messages
func ValidationFailed(c *gin.Context, message string, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{
		Error:   "VALIDATION_FAILED",
		Message: message,
		Fields:  fields,
	})
}

// BadRequest writes a 400 response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized writes a 401 response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden writes a 403 response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "FORBIDDEN", message)
}

// NotFound writes a 404 response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// Conflict writes a 409 response
func Conflict(c *gin.Context, code, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError writes a 500 response
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}
