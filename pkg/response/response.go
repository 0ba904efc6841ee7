package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope used by the /api/v1 routes. Code is 0 on success and
// mirrors the HTTP status otherwise; Reason carries the machine-readable error code.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Code: 0, Message: "ok", Data: data})
}

func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, APIResponse{Code: code, Message: message})
}

// Fail writes an error envelope tagged with a machine-readable reason.
func Fail(c *gin.Context, httpStatus int, reason string, message string) {
	c.JSON(httpStatus, APIResponse{Code: httpStatus, Message: message, Reason: reason})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, 400, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, 401, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, 403, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, 500, message)
}
