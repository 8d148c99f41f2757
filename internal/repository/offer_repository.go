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

const offerColumns = `id, message, proposed_budget::text, proposed_deadline, project_id, freelancer_id, created_at`

type OfferRepository struct {
	pool database.Pool
}

func NewOfferRepository(pool database.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	const query = `
		INSERT INTO offers (message, proposed_budget, proposed_deadline, project_id, freelancer_id)
		VALUES ($1, $2::numeric, $3, $4, $5)
		RETURNING id, created_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			offer.Message,
			offer.ProposedBudget,
			offer.ProposedDeadline,
			offer.ProjectID,
			offer.FreelancerID,
		).Scan(&offer.ID, &offer.CreatedAt)
		return classifyWrite(err)
	})
}

func (r *OfferRepository) GetByID(ctx context.Context, id int64) (models.Offer, error) {
	return scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// List returns offers, optionally only those on projectID when it is > 0.
func (r *OfferRepository) List(ctx context.Context, projectID int64, limit, offset int) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers`
	args := []any{limit, offset}
	if projectID > 0 {
		query += ` WHERE project_id = $3`
		args = append(args, projectID)
	}
	query += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]models.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *OfferRepository) Update(ctx context.Context, id int64, patch models.OfferPatch) (models.Offer, error) {
	var sets []string
	args := []any{id}
	set := func(column, cast string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if patch.Message != nil {
		set("message", "", *patch.Message)
	}
	if patch.ProposedBudget != nil {
		set("proposed_budget", "::numeric", *patch.ProposedBudget)
	}
	if patch.ProposedDeadline != nil {
		set("proposed_deadline", "", *patch.ProposedDeadline)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	var offer models.Offer
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `UPDATE offers SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + offerColumns
		var err error
		offer, err = scanOffer(tx.QueryRow(ctx, query, args...))
		return classifyWrite(err)
	})
	if err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}

func (r *OfferRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOfferNotFound
	}
	return nil
}

func scanOffer(row scanner) (models.Offer, error) {
	var offer models.Offer
	if err := row.Scan(
		&offer.ID,
		&offer.Message,
		&offer.ProposedBudget,
		&offer.ProposedDeadline,
		&offer.ProjectID,
		&offer.FreelancerID,
		&offer.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Offer{}, ErrOfferNotFound
		}
		return models.Offer{}, err
	}
	return offer, nil
}
