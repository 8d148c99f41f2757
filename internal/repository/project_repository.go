package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"freelance/internal/database"
	"freelance/internal/models"
)

const projectColumns = `
	p.id, p.name, p.description, p.budget::text, p.deadline, p.status,
	p.category_id, p.client_id, p.created_at, p.updated_at,
	COALESCE((SELECT array_agg(ps.skill_id ORDER BY ps.skill_id) FROM project_skills ps WHERE ps.project_id = p.id), '{}')
`

// ProjectFilter narrows List. Zero values mean no filter.
type ProjectFilter struct {
	ClientID   int64
	CategoryID int64
	Status     models.ProjectStatus
}

type ProjectRepository struct {
	pool database.Pool
}

func NewProjectRepository(pool database.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	const query = `
		INSERT INTO projects (name, description, budget, deadline, status, category_id, client_id)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			project.Name,
			project.Description,
			project.Budget,
			project.Deadline,
			project.Status,
			project.CategoryID,
			project.ClientID,
		).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return classifyWrite(err)
		}

		if len(project.SkillIDs) > 0 {
			return replaceSkillLinks(ctx, tx, "project_skills", "project_id", project.ID, project.SkillIDs)
		}
		return nil
	})
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = $1`
	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter, limit, offset int) ([]models.Project, error) {
	var where []string
	args := []any{limit, offset}
	if filter.ClientID > 0 {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("p.client_id = $%d", len(args)))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)))
	}

	query := `SELECT ` + projectColumns + ` FROM projects p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, id int64, patch models.ProjectPatch) (models.Project, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column, cast string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if patch.Name != nil {
		set("name", "", *patch.Name)
	}
	if patch.Description != nil {
		set("description", "", *patch.Description)
	}
	if patch.Budget != nil {
		set("budget", "::numeric", *patch.Budget)
	}
	if patch.Deadline != nil {
		set("deadline", "", *patch.Deadline)
	}
	if patch.Status != nil {
		set("status", "", *patch.Status)
	}
	if patch.CategoryID != nil {
		set("category_id", "", *patch.CategoryID)
	}

	var project models.Project
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
		cmd, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return classifyWrite(err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrProjectNotFound
		}

		if patch.SkillIDs != nil {
			if err := replaceSkillLinks(ctx, tx, "project_skills", "project_id", id, *patch.SkillIDs); err != nil {
				return err
			}
		}

		project, err = scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, id))
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// Delete removes the project together with its offers and reviews.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}

func scanProject(row scanner) (models.Project, error) {
	var project models.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Budget,
		&project.Deadline,
		&project.Status,
		&project.CategoryID,
		&project.ClientID,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.SkillIDs,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrProjectNotFound
		}
		return models.Project{}, err
	}
	return project, nil
}
