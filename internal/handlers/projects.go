package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"freelance/internal/models"
	"freelance/internal/repository"
	"freelance/internal/service"
)

type createProjectRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description *string    `json:"description"`
	Budget      *string    `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	CategoryID  int64      `json:"category_id" binding:"required"`
	SkillIDs    []int64    `json:"skills"`
	ClientID    int64      `json:"client_id"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Budget      *string    `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Status      *string    `json:"status"`
	CategoryID  *int64     `json:"category_id"`
	SkillIDs    *[]int64   `json:"skills"`
}

func (h HandlerSet) ListProjects(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.ProjectFilter{
		ClientID:   queryID(c, "client_id"),
		CategoryID: queryID(c, "category_id"),
		Status:     models.ProjectStatus(strings.ToLower(c.Query("status"))),
	}

	projects, err := h.svc.Projects.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(projects, toProjectResponse))
}

func (h HandlerSet) GetProject(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	project, err := h.svc.Projects.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h HandlerSet) CreateProject(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.svc.Projects.Create(c.Request.Context(), actor, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Status:      models.ProjectStatus(strings.ToLower(req.Status)),
		CategoryID:  req.CategoryID,
		SkillIDs:    req.SkillIDs,
		ClientID:    req.ClientID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(project))
}

func (h HandlerSet) UpdateProject(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req updateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	upd := service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		CategoryID:  req.CategoryID,
		SkillIDs:    req.SkillIDs,
	}
	if req.Status != nil {
		status := models.ProjectStatus(strings.ToLower(*req.Status))
		upd.Status = &status
	}

	project, err := h.svc.Projects.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h HandlerSet) DeleteProject(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Projects.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
