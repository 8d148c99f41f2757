package service

import (
	"context"
	"strings"
	"time"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
)

type ProjectService struct {
	projects *repository.ProjectRepository
}

func NewProjectService(projects *repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

type ProjectInput struct {
	Name        string  `validate:"required,max=255"`
	Description *string `validate:"omitnil,min=5,max=2000"`
	Budget      *string `validate:"omitnil,money"`
	Deadline    *time.Time
	Status      models.ProjectStatus
	CategoryID  int64   `validate:"gt=0"`
	SkillIDs    []int64 `validate:"dive,gt=0"`
	// ClientID is honoured for admins only; clients always own what they create.
	ClientID int64
}

type ProjectUpdate struct {
	Name        *string `validate:"omitnil,min=1,max=255"`
	Description *string `validate:"omitnil,min=5,max=2000"`
	Budget      *string `validate:"omitnil,money"`
	Deadline    *time.Time
	Status      *models.ProjectStatus
	CategoryID  *int64   `validate:"omitnil,gt=0"`
	SkillIDs    *[]int64 `validate:"omitnil,dive,gt=0"`
}

func (s *ProjectService) List(ctx context.Context, filter repository.ProjectFilter, limit, offset int) ([]models.Project, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("unknown project status")
	}
	limit, offset = clampPage(limit, offset)
	projects, err := s.projects.List(ctx, filter, limit, offset)
	return projects, translate("list projects", err)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	return project, translate("get project", err)
}

func (s *ProjectService) Create(ctx context.Context, actor Actor, input ProjectInput) (models.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return models.Project{}, err
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusOpen
	}
	if !input.Status.Valid() {
		return models.Project{}, apperr.Validation("unknown project status")
	}

	clientID := actor.UserID
	if actor.IsAdmin() && input.ClientID > 0 {
		clientID = input.ClientID
	}

	project := models.Project{
		Name:        input.Name,
		Description: input.Description,
		Budget:      input.Budget,
		Deadline:    input.Deadline,
		Status:      input.Status,
		CategoryID:  input.CategoryID,
		ClientID:    clientID,
		SkillIDs:    input.SkillIDs,
	}
	if err := s.projects.Create(ctx, &project); err != nil {
		return models.Project{}, translate("create project", err)
	}
	if project.SkillIDs == nil {
		project.SkillIDs = []int64{}
	}
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, actor Actor, id int64, input ProjectUpdate) (models.Project, error) {
	if err := validateStruct(input); err != nil {
		return models.Project{}, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return models.Project{}, apperr.Validation("unknown project status")
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return models.Project{}, err
	}

	project, err := s.projects.Update(ctx, id, models.ProjectPatch{
		Name:        input.Name,
		Description: input.Description,
		Budget:      input.Budget,
		Deadline:    input.Deadline,
		Status:      input.Status,
		CategoryID:  input.CategoryID,
		SkillIDs:    input.SkillIDs,
	})
	return project, translate("update project", err)
}

func (s *ProjectService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return translate("delete project", s.projects.Delete(ctx, id))
}

func (s *ProjectService) authorize(ctx context.Context, actor Actor, id int64) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return translate("get project", err)
	}
	if !actor.canModify(project.ClientID) {
		return errNotOwner
	}
	return nil
}
