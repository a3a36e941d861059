package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/minwon-api/internal/middleware"
	appErrors "github.com/noah-isme/minwon-api/pkg/errors"
	"github.com/noah-isme/minwon-api/pkg/response"
)

// complaintID reads the :id path parameter, answering 400 when it is blank.
func complaintID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "complaint id is required"))
		return "", false
	}
	return id, true
}

// responseMeta returns the request's metadata map, creating one when the meta middleware
// is not installed.
func responseMeta(c *gin.Context) map[string]interface{} {
	if meta := middleware.ExtractMeta(c); meta != nil {
		return meta
	}
	return map[string]interface{}{}
}

// metaOrNil drops an empty map so the envelope omits the meta object.
func metaOrNil(meta map[string]interface{}) map[string]interface{} {
	if len(meta) == 0 {
		return nil
	}
	return meta
}
