package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelance/internal/service"
)

type createOfferRequest struct {
	Message          string    `json:"message" binding:"required"`
	ProposedBudget   string    `json:"proposed_budget" binding:"required"`
	ProposedDeadline time.Time `json:"proposed_deadline" binding:"required"`
	ProjectID        int64     `json:"project_id" binding:"required"`
}

type updateOfferRequest struct {
	Message          *string    `json:"message"`
	ProposedBudget   *string    `json:"proposed_budget"`
	ProposedDeadline *time.Time `json:"proposed_deadline"`
}

func (h HandlerSet) ListOffers(c *gin.Context) {
	limit, offset := pagination(c)
	offers, err := h.svc.Offers.List(c.Request.Context(), queryID(c, "project_id"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(offers, toOfferResponse))
}

func (h HandlerSet) GetOffer(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	offer, err := h.svc.Offers.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h HandlerSet) CreateOffer(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req createOfferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	offer, err := h.svc.Offers.Create(c.Request.Context(), actor, service.OfferInput{
		Message:          req.Message,
		ProposedBudget:   req.ProposedBudget,
		ProposedDeadline: req.ProposedDeadline,
		ProjectID:        req.ProjectID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOfferResponse(offer))
}

func (h HandlerSet) UpdateOffer(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req updateOfferRequest
	if !h.bindJSON(c, &req) {
		return
	}

	offer, err := h.svc.Offers.Update(c.Request.Context(), actor, id, service.OfferUpdate{
		Message:          req.Message,
		ProposedBudget:   req.ProposedBudget,
		ProposedDeadline: req.ProposedDeadline,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h HandlerSet) DeleteOffer(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Offers.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
