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

const reviewColumns = `id, rating, comment, project_id, reviewer_id, target_id, created_at`

// ReviewFilter narrows List. Zero values mean no filter.
type ReviewFilter struct {
	ProjectID int64
	TargetID  int64
}

type ReviewRepository struct {
	pool database.Pool
}

func NewReviewRepository(pool database.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	const query = `
		INSERT INTO reviews (rating, comment, project_id, reviewer_id, target_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			review.Rating,
			review.Comment,
			review.ProjectID,
			review.ReviewerID,
			review.TargetID,
		).Scan(&review.ID, &review.CreatedAt)
		return classifyWrite(err)
	})
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (models.Review, error) {
	return scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
}

func (r *ReviewRepository) List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]models.Review, error) {
	var where []string
	args := []any{limit, offset}
	if filter.ProjectID > 0 {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.TargetID > 0 {
		args = append(args, filter.TargetID)
		where = append(where, fmt.Sprintf("target_id = $%d", len(args)))
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, id int64, patch models.ReviewPatch) (models.Review, error) {
	const query = `
		UPDATE reviews
		SET rating = COALESCE($2, rating),
		    comment = COALESCE($3, comment)
		WHERE id = $1
		RETURNING ` + reviewColumns

	var review models.Review
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		review, err = scanReview(tx.QueryRow(ctx, query, id, patch.Rating, patch.Comment))
		return classifyWrite(err)
	})
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func scanReview(row scanner) (models.Review, error) {
	var review models.Review
	if err := row.Scan(
		&review.ID,
		&review.Rating,
		&review.Comment,
		&review.ProjectID,
		&review.ReviewerID,
		&review.TargetID,
		&review.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Review{}, ErrReviewNotFound
		}
		return models.Review{}, err
	}
	return review, nil
}
