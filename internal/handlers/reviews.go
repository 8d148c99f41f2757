package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelance/internal/repository"
	"freelance/internal/service"
)

type createReviewRequest struct {
	Rating    int     `json:"rating" binding:"required"`
	Comment   *string `json:"comment"`
	ProjectID int64   `json:"project_id" binding:"required"`
	TargetID  int64   `json:"target_id" binding:"required"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (h HandlerSet) ListReviews(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.ReviewFilter{
		ProjectID: queryID(c, "project_id"),
		TargetID:  queryID(c, "target_id"),
	}
	reviews, err := h.svc.Reviews.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(reviews, toReviewResponse))
}

func (h HandlerSet) GetReview(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	review, err := h.svc.Reviews.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

func (h HandlerSet) CreateReview(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req createReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.svc.Reviews.Create(c.Request.Context(), actor, service.ReviewInput{
		Rating:    req.Rating,
		Comment:   req.Comment,
		ProjectID: req.ProjectID,
		TargetID:  req.TargetID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReviewResponse(review))
}

func (h HandlerSet) UpdateReview(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req updateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.svc.Reviews.Update(c.Request.Context(), actor, id, service.ReviewUpdate{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

func (h HandlerSet) DeleteReview(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Reviews.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
