package service

import (
	"context"
	"time"

	"freelance/internal/models"
	"freelance/internal/repository"
)

type OfferService struct {
	offers *repository.OfferRepository
}

func NewOfferService(offers *repository.OfferRepository) *OfferService {
	return &OfferService{offers: offers}
}

type OfferInput struct {
	Message          string    `validate:"required,min=5,max=2000"`
	ProposedBudget   string    `validate:"required,money"`
	ProposedDeadline time.Time `validate:"required"`
	ProjectID        int64     `validate:"gt=0"`
}

type OfferUpdate struct {
	Message          *string `validate:"omitnil,min=5,max=2000"`
	ProposedBudget   *string `validate:"omitnil,money"`
	ProposedDeadline *time.Time
}

func (s *OfferService) List(ctx context.Context, projectID int64, limit, offset int) ([]models.Offer, error) {
	limit, offset = clampPage(limit, offset)
	offers, err := s.offers.List(ctx, projectID, limit, offset)
	return offers, translate("list offers", err)
}

func (s *OfferService) Get(ctx context.Context, id int64) (models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	return offer, translate("get offer", err)
}

// Create files an offer from the calling freelancer on a project.
func (s *OfferService) Create(ctx context.Context, actor Actor, input OfferInput) (models.Offer, error) {
	if err := validateStruct(input); err != nil {
		return models.Offer{}, err
	}

	offer := models.Offer{
		Message:          input.Message,
		ProposedBudget:   input.ProposedBudget,
		ProposedDeadline: input.ProposedDeadline,
		ProjectID:        input.ProjectID,
		FreelancerID:     actor.UserID,
	}
	if err := s.offers.Create(ctx, &offer); err != nil {
		return models.Offer{}, translate("create offer", err)
	}
	return offer, nil
}

func (s *OfferService) Update(ctx context.Context, actor Actor, id int64, input OfferUpdate) (models.Offer, error) {
	if err := validateStruct(input); err != nil {
		return models.Offer{}, err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return models.Offer{}, err
	}

	offer, err := s.offers.Update(ctx, id, models.OfferPatch{
		Message:          input.Message,
		ProposedBudget:   input.ProposedBudget,
		ProposedDeadline: input.ProposedDeadline,
	})
	return offer, translate("update offer", err)
}

func (s *OfferService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return translate("delete offer", s.offers.Delete(ctx, id))
}

func (s *OfferService) authorize(ctx context.Context, actor Actor, id int64) error {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return translate("get offer", err)
	}
	if !actor.canModify(offer.FreelancerID) {
		return errNotOwner
	}
	return nil
}
