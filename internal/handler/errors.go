package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimandi/pkg/apperr"
	"agrimandi/pkg/response"
)

// statusFor maps an application error kind to an HTTP status code.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthorized:
		return http.StatusForbidden
	case apperr.Invalid:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes the standard error envelope for a service-layer error.
func respondErr(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(code, response.Error(code, msg))
}

// currentUserID reads the authenticated user id placed by the auth middleware.
func currentUserID(c *gin.Context) string {
	v, _ := c.Get("userID")
	s, _ := v.(string)
	return s
}

// currentUserRole reads the authenticated role placed by the auth middleware.
func currentUserRole(c *gin.Context) string {
	v, _ := c.Get("userRole")
	s, _ := v.(string)
	return s
}
