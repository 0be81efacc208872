package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hospitalops/scheduler-api/pkg/apperror"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes a typed business error with its mapped status code.
// Unexpected errors reach the client as an opaque 500.
func Error(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)

	message := "internal server error"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != apperror.CodeInternal {
		message = appErr.Message
	}

	_ = c.Error(err)
	c.JSON(status, NewErrorResponse(message))
}
