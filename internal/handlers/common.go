// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itemt/agroconnect-backend/internal/utils"
)

// currentUserID resolves the authenticated user from the request context.
// Writes the 401 response itself so callers can just return on !ok.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a :param path segment as a UUID. Writes the 400 response
// on failure.
func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}
