package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance/internal/models"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func skillResponse(s models.Skill) namedResponse {
	return namedResponse{ID: s.ID, Name: s.Name}
}

func categoryResponse(cat models.Category) namedResponse {
	return namedResponse{ID: cat.ID, Name: cat.Name}
}

func (h HandlerSet) ListSkills(c *gin.Context) {
	skills, err := h.svc.Catalog.ListSkills(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(skills, skillResponse))
}

func (h HandlerSet) GetSkill(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	skill, err := h.svc.Catalog.GetSkill(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, skillResponse(skill))
}

func (h HandlerSet) CreateSkill(c *gin.Context) {
	var req nameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	skill, err := h.svc.Catalog.CreateSkill(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, skillResponse(skill))
}

func (h HandlerSet) RenameSkill(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req nameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	skill, err := h.svc.Catalog.RenameSkill(c.Request.Context(), id, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, skillResponse(skill))
}

func (h HandlerSet) DeleteSkill(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteSkill(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	categories, err := h.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(categories, categoryResponse))
}

func (h HandlerSet) GetCategory(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	category, err := h.svc.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryResponse(category))
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req nameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryResponse(category))
}

func (h HandlerSet) RenameCategory(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req nameRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Catalog.RenameCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryResponse(category))
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
