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

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.role, u.first_name, u.last_name,
	u.age, u.phone_number, u.biography, u.avatar_url, u.created_at,
	COALESCE((SELECT array_agg(us.skill_id ORDER BY us.skill_id) FROM user_skills us WHERE us.user_id = u.id), '{}')
`

type UserRepository struct {
	pool database.Pool
}

func NewUserRepository(pool database.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts the user and its skill links in one transaction and fills
// in the generated id and created_at.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (
			username, email, password_hash, role, first_name, last_name, age, phone_number, biography, avatar_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING id, created_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Role,
			user.FirstName,
			user.LastName,
			user.Age,
			user.PhoneNumber,
			user.Biography,
			user.AvatarURL,
		).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			return classifyWrite(err)
		}

		if len(user.SkillIDs) > 0 {
			return replaceSkillLinks(ctx, tx, "user_skills", "user_id", user.ID, user.SkillIDs)
		}
		return nil
	})
}

// Exists reports which of username and email are already taken.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, bool, error) {
	const query = `
		SELECT
			EXISTS(SELECT 1 FROM users WHERE username = $1),
			EXISTS(SELECT 1 FROM users WHERE email = $2)
	`
	var usernameTaken, emailTaken bool
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, err
	}
	return usernameTaken, emailTaken, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update applies the non-nil fields of patch and returns the stored row.
func (r *UserRepository) Update(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	var sets []string
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Username != nil {
		set("username", *patch.Username)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Age != nil {
		set("age", *patch.Age)
	}
	if patch.PhoneNumber != nil {
		set("phone_number", *patch.PhoneNumber)
	}
	if patch.Biography != nil {
		set("biography", *patch.Biography)
	}
	if patch.AvatarURL != nil {
		set("avatar_url", *patch.AvatarURL)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}

	var user models.User
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if len(sets) > 0 {
			query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
			cmd, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return classifyWrite(err)
			}
			if cmd.RowsAffected() == 0 {
				return ErrUserNotFound
			}
		}

		if patch.SkillIDs != nil {
			if err := replaceSkillLinks(ctx, tx, "user_skills", "user_id", id, *patch.SkillIDs); err != nil {
				return err
			}
		}

		var err error
		user, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Delete removes the user; refresh tokens, projects, offers and reviews go
// with it through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.FirstName,
		&user.LastName,
		&user.Age,
		&user.PhoneNumber,
		&user.Biography,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.SkillIDs,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// replaceSkillLinks rewrites the skill set of one owner row in a link table.
func replaceSkillLinks(ctx context.Context, q database.Querier, table, ownerColumn string, ownerID int64, skillIDs []int64) error {
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, ownerColumn), ownerID); err != nil {
		return err
	}
	if len(skillIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s, skill_id) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		table, ownerColumn,
	)
	if _, err := q.Exec(ctx, query, ownerID, skillIDs); err != nil {
		return classifyWrite(err)
	}
	return nil
}

func (r *UserRepository) SetRole(ctx context.Context, id int64, role models.UserRole) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
		if err != nil {
			return classifyWrite(err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
