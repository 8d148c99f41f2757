package service

import (
	"context"
	"strings"

	"freelance/internal/apperr"
	"freelance/internal/models"
	"freelance/internal/repository"
)

// CatalogService manages skills and categories. Write access is limited to
// admins at the router.
type CatalogService struct {
	catalog *repository.CatalogRepository
}

func NewCatalogService(catalog *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func catalogName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 250 {
		return "", apperr.Validation("name must be 1-250 characters")
	}
	return name, nil
}

func (s *CatalogService) ListSkills(ctx context.Context) ([]models.Skill, error) {
	skills, err := s.catalog.ListSkills(ctx)
	return skills, translate("list skills", err)
}

func (s *CatalogService) GetSkill(ctx context.Context, id int64) (models.Skill, error) {
	skill, err := s.catalog.GetSkill(ctx, id)
	return skill, translate("get skill", err)
}

func (s *CatalogService) CreateSkill(ctx context.Context, name string) (models.Skill, error) {
	name, err := catalogName(name)
	if err != nil {
		return models.Skill{}, err
	}
	skill, err := s.catalog.CreateSkill(ctx, name)
	return skill, translate("create skill", err)
}

func (s *CatalogService) RenameSkill(ctx context.Context, id int64, name string) (models.Skill, error) {
	name, err := catalogName(name)
	if err != nil {
		return models.Skill{}, err
	}
	skill, err := s.catalog.RenameSkill(ctx, id, name)
	return skill, translate("rename skill", err)
}

func (s *CatalogService) DeleteSkill(ctx context.Context, id int64) error {
	return translate("delete skill", s.catalog.DeleteSkill(ctx, id))
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	return categories, translate("list categories", err)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	category, err := s.catalog.GetCategory(ctx, id)
	return category, translate("get category", err)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name, err := catalogName(name)
	if err != nil {
		return models.Category{}, err
	}
	category, err := s.catalog.CreateCategory(ctx, name)
	return category, translate("create category", err)
}

func (s *CatalogService) RenameCategory(ctx context.Context, id int64, name string) (models.Category, error) {
	name, err := catalogName(name)
	if err != nil {
		return models.Category{}, err
	}
	category, err := s.catalog.RenameCategory(ctx, id, name)
	return category, translate("rename category", err)
}

// DeleteCategory fails with a conflict while projects still use it.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return translate("delete category", s.catalog.DeleteCategory(ctx, id))
}
