package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.svc.Users.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(users, toUserResponse))
}

func (h HandlerSet) GetUser(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h HandlerSet) Me(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	Username    *string  `json:"username"`
	Email       *string  `json:"email"`
	FirstName   *string  `json:"first_name"`
	LastName    *string  `json:"last_name"`
	Age         *int     `json:"age"`
	PhoneNumber *string  `json:"phone_number"`
	Biography   *string  `json:"biography"`
	Password    *string  `json:"password"`
	SkillIDs    *[]int64 `json:"skills"`
}

func (h HandlerSet) UpdateMe(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Users.Update(c.Request.Context(), actor, actor.UserID, service.ProfileUpdate{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Age:         req.Age,
		PhoneNumber: req.PhoneNumber,
		Biography:   req.Biography,
		Password:    req.Password,
		SkillIDs:    req.SkillIDs,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h HandlerSet) DeleteMe(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), actor, actor.UserID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
