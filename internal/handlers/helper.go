package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/models"
)

const (
	userSubKey  = "user_sub"
	identityKey = "identity"
)

// ParseStringIDParam writes a 400 and returns "" when the path parameter is blank
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// currentIdentity returns the identity stored by the auth middleware
func currentIdentity(c *gin.Context) (*models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*models.Identity)
	return identity, ok && identity != nil
}

// mustIdentity aborts with 401 when the route was mounted without authentication
func mustIdentity(c *gin.Context) *models.Identity {
	identity, ok := currentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return nil
	}
	return identity
}
