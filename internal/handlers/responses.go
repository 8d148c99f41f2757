package handlers

import (
	"time"

	"freelance/internal/models"
)

type userResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Age         *int      `json:"age"`
	PhoneNumber *string   `json:"phone_number"`
	Biography   *string   `json:"biography"`
	Avatar      *string   `json:"avatar"`
	Skills      []int64   `json:"skills"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Age:         u.Age,
		PhoneNumber: u.PhoneNumber,
		Biography:   u.Biography,
		Avatar:      u.AvatarURL,
		Skills:      nonNilIDs(u.SkillIDs),
		CreatedAt:   u.CreatedAt,
	}
}

type namedResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type projectResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Budget      *string    `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
	CategoryID  int64      `json:"category_id"`
	ClientID    int64      `json:"client_id"`
	Skills      []int64    `json:"skills"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toProjectResponse(p models.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Budget:      p.Budget,
		Deadline:    p.Deadline,
		Status:      string(p.Status),
		CategoryID:  p.CategoryID,
		ClientID:    p.ClientID,
		Skills:      nonNilIDs(p.SkillIDs),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type offerResponse struct {
	ID               int64     `json:"id"`
	Message          string    `json:"message"`
	ProposedBudget   string    `json:"proposed_budget"`
	ProposedDeadline time.Time `json:"proposed_deadline"`
	ProjectID        int64     `json:"project_id"`
	FreelancerID     int64     `json:"freelancer_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func toOfferResponse(o models.Offer) offerResponse {
	return offerResponse{
		ID:               o.ID,
		Message:          o.Message,
		ProposedBudget:   o.ProposedBudget,
		ProposedDeadline: o.ProposedDeadline,
		ProjectID:        o.ProjectID,
		FreelancerID:     o.FreelancerID,
		CreatedAt:        o.CreatedAt,
	}
}

type reviewResponse struct {
	ID         int64     `json:"id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment"`
	ProjectID  int64     `json:"project_id"`
	ReviewerID int64     `json:"reviewer_id"`
	TargetID   int64     `json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReviewResponse(r models.Review) reviewResponse {
	return reviewResponse{
		ID:         r.ID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		ProjectID:  r.ProjectID,
		ReviewerID: r.ReviewerID,
		TargetID:   r.TargetID,
		CreatedAt:  r.CreatedAt,
	}
}

// mapAll converts a result page, keeping empty pages as [] in JSON.
func mapAll[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
