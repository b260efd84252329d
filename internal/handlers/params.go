package handlers

import (
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidID = "'id' is not a valid identifier."

// uuidParam parses path parameter name. On failure it writes a 400 and
// reports false.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, msgInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
