package models

import "time"

type Skill struct {
	ID   int64
	Name string
}

type Category struct {
	ID   int64
	Name string
}

type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Money amounts travel as decimal strings ("1500.00") and are cast to
// NUMERIC(12,2) in SQL.
type Project struct {
	ID          int64
	Name        string
	Description *string
	Budget      *string
	Deadline    *time.Time
	Status      ProjectStatus
	CategoryID  int64
	ClientID    int64
	SkillIDs    []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProjectPatch struct {
	Name        *string
	Description *string
	Budget      *string
	Deadline    *time.Time
	Status      *ProjectStatus
	CategoryID  *int64
	SkillIDs    *[]int64
}

type Offer struct {
	ID               int64
	Message          string
	ProposedBudget   string
	ProposedDeadline time.Time
	ProjectID        int64
	FreelancerID     int64
	CreatedAt        time.Time
}

type OfferPatch struct {
	Message          *string
	ProposedBudget   *string
	ProposedDeadline *time.Time
}

type Review struct {
	ID         int64
	Rating     int
	Comment    *string
	ProjectID  int64
	ReviewerID int64
	TargetID   int64
	CreatedAt  time.Time
}

type ReviewPatch struct {
	Rating  *int
	Comment *string
}
