package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"freelance/internal/database"
	"freelance/internal/models"
)

// CatalogRepository stores the two flat lookup tables, skills and
// categories. They share a shape so queries are parameterized by table.
type CatalogRepository struct {
	pool database.Pool
}

func NewCatalogRepository(pool database.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

type catalogTable struct {
	name     string
	notFound error
}

var (
	skillsTable     = catalogTable{name: "skills", notFound: ErrSkillNotFound}
	categoriesTable = catalogTable{name: "categories", notFound: ErrCategoryNotFound}
)

func (r *CatalogRepository) CreateSkill(ctx context.Context, name string) (models.Skill, error) {
	id, err := r.create(ctx, skillsTable, name)
	return models.Skill{ID: id, Name: name}, err
}

func (r *CatalogRepository) GetSkill(ctx context.Context, id int64) (models.Skill, error) {
	name, err := r.get(ctx, skillsTable, id)
	return models.Skill{ID: id, Name: name}, err
}

func (r *CatalogRepository) ListSkills(ctx context.Context) ([]models.Skill, error) {
	var skills []models.Skill
	err := r.list(ctx, skillsTable, func(id int64, name string) {
		skills = append(skills, models.Skill{ID: id, Name: name})
	})
	if skills == nil {
		skills = []models.Skill{}
	}
	return skills, err
}

func (r *CatalogRepository) RenameSkill(ctx context.Context, id int64, name string) (models.Skill, error) {
	err := r.rename(ctx, skillsTable, id, name)
	return models.Skill{ID: id, Name: name}, err
}

// DeleteSkill also drops the skill from every user and project through the
// link tables' ON DELETE CASCADE.
func (r *CatalogRepository) DeleteSkill(ctx context.Context, id int64) error {
	return r.delete(ctx, skillsTable, id)
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	id, err := r.create(ctx, categoriesTable, name)
	return models.Category{ID: id, Name: name}, err
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	name, err := r.get(ctx, categoriesTable, id)
	return models.Category{ID: id, Name: name}, err
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.list(ctx, categoriesTable, func(id int64, name string) {
		categories = append(categories, models.Category{ID: id, Name: name})
	})
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, err
}

func (r *CatalogRepository) RenameCategory(ctx context.Context, id int64, name string) (models.Category, error) {
	err := r.rename(ctx, categoriesTable, id, name)
	return models.Category{ID: id, Name: name}, err
}

// DeleteCategory fails with ErrStillReferenced while projects use it.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.delete(ctx, categoriesTable, id)
}

func (r *CatalogRepository) create(ctx context.Context, t catalogTable, name string) (int64, error) {
	var id int64
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, t.name)
		return classifyWrite(tx.QueryRow(ctx, query, name).Scan(&id))
	})
	return id, err
}

func (r *CatalogRepository) get(ctx context.Context, t catalogTable, id int64) (string, error) {
	var name string
	query := fmt.Sprintf(`SELECT name FROM %s WHERE id = $1`, t.name)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", t.notFound
		}
		return "", err
	}
	return name, nil
}

func (r *CatalogRepository) list(ctx context.Context, t catalogTable, each func(id int64, name string)) error {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, t.name))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		each(id, name)
	}
	return rows.Err()
}

func (r *CatalogRepository) rename(ctx context.Context, t catalogTable, id int64, name string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET name = $2 WHERE id = $1`, t.name), id, name)
		if err != nil {
			return classifyWrite(err)
		}
		if cmd.RowsAffected() == 0 {
			return t.notFound
		}
		return nil
	})
}

func (r *CatalogRepository) delete(ctx context.Context, t catalogTable, id int64) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
		if err != nil {
			if _, ok := database.ForeignKeyViolation(err); ok {
				return ErrStillReferenced
			}
			return err
		}
		if cmd.RowsAffected() == 0 {
			return t.notFound
		}
		return nil
	})
}
