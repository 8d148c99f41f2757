package service

import (
	"context"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
)

type ReviewService struct {
	reviews *repository.ReviewRepository
}

func NewReviewService(reviews *repository.ReviewRepository) *ReviewService {
	return &ReviewService{reviews: reviews}
}

type ReviewInput struct {
	Rating    int     `validate:"gte=1,lte=5"`
	Comment   *string `validate:"omitnil,min=5,max=2000"`
	ProjectID int64   `validate:"gt=0"`
	TargetID  int64   `validate:"gt=0"`
}

type ReviewUpdate struct {
	Rating  *int    `validate:"omitnil,gte=1,lte=5"`
	Comment *string `validate:"omitnil,min=5,max=2000"`
}

func (s *ReviewService) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]models.Review, error) {
	limit, offset = clampPage(limit, offset)
	reviews, err := s.reviews.List(ctx, filter, limit, offset)
	return reviews, translate("list reviews", err)
}

func (s *ReviewService) Get(ctx context.Context, id int64) (models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	return review, translate("get review", err)
}

// Create records a review written by the caller about another user.
func (s *ReviewService) Create(ctx context.Context, actor Actor, input ReviewInput) (models.Review, error) {
	if err := validateStruct(input); err != nil {
		return models.Review{}, err
	}
	if input.TargetID == actor.UserID {
		return models.Review{}, apperr.Validation("cannot review yourself")
	}

	review := models.Review{
		Rating:     input.Rating,
		Comment:    input.Comment,
		ProjectID:  input.ProjectID,
		ReviewerID: actor.UserID,
		TargetID:   input.TargetID,
	}
	if err := s.reviews.Create(ctx, &review); err != nil {
		return models.Review{}, translate("create review", err)
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id int64, input ReviewUpdate) (models.Review, error) {
	if err := validateStruct(input); err != nil {
		return models.Review{}, err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return models.Review{}, err
	}

	review, err := s.reviews.Update(ctx, id, models.ReviewPatch{Rating: input.Rating, Comment: input.Comment})
	return review, translate("update review", err)
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return translate("delete review", s.reviews.Delete(ctx, id))
}

func (s *ReviewService) authorize(ctx context.Context, actor Actor, id int64) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return translate("get review", err)
	}
	if !actor.canModify(review.ReviewerID) {
		return errNotOwner
	}
	return nil
}
