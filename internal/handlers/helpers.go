// Package handlers exposes the service's request/response operations over
// gin. Every operation binds an explicitly typed request and maps error
// categories through apperr.
package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/observability"
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// bindStrict decodes a JSON body rejecting unknown fields, so malformed or
// misspelled payloads fail loudly instead of being silently ignored.
func bindStrict(c *gin.Context, dst any) bool {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func requestID(c *gin.Context) string {
	return observability.RequestIDFromRequest(c.Request)
}
