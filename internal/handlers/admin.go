package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"freelance/internal/models"
)

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Users.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AdminSetRole takes effect for the user's next access token; tokens already
// issued keep their role claim until they expire.
func (h HandlerSet) AdminSetRole(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req setRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	role := models.UserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if err := h.svc.Users.SetRole(c.Request.Context(), actor, id, role); err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
