package database

import (
	"context"
	"fmt"
)

// schema is idempotent. Ownership cascades from users so deleting a user
// removes its refresh tokens, projects, offers and reviews in one statement.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      VARCHAR(50) NOT NULL CONSTRAINT users_username_key UNIQUE,
	email         VARCHAR(254) NOT NULL CONSTRAINT users_email_key UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('admin', 'client', 'freelancer')),
	first_name    VARCHAR(100) NOT NULL DEFAULT '',
	last_name     VARCHAR(100) NOT NULL DEFAULT '',
	age           INTEGER CHECK (age > 0 AND age < 100),
	phone_number  VARCHAR(32),
	biography     TEXT,
	avatar_url    VARCHAR(512),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash CHAR(64) NOT NULL CONSTRAINT refresh_tokens_token_hash_key UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens(expires_at);

CREATE TABLE IF NOT EXISTS skills (
	id   BIGSERIAL PRIMARY KEY,
	name VARCHAR(250) NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id   BIGSERIAL PRIMARY KEY,
	name VARCHAR(250) NOT NULL
);

CREATE TABLE IF NOT EXISTS user_skills (
	user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	skill_id BIGINT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, skill_id)
);

CREATE TABLE IF NOT EXISTS projects (
	id          BIGSERIAL PRIMARY KEY,
	name        VARCHAR(255) NOT NULL,
	description TEXT,
	budget      NUMERIC(12, 2),
	deadline    TIMESTAMPTZ,
	status      TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'completed', 'cancelled')),
	category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
	client_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id);
CREATE INDEX IF NOT EXISTS idx_projects_category_id ON projects(category_id);

CREATE TABLE IF NOT EXISTS project_skills (
	project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	skill_id   BIGINT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
	PRIMARY KEY (project_id, skill_id)
);

CREATE TABLE IF NOT EXISTS offers (
	id                BIGSERIAL PRIMARY KEY,
	message           TEXT NOT NULL,
	proposed_budget   NUMERIC(12, 2) NOT NULL,
	proposed_deadline TIMESTAMPTZ NOT NULL,
	project_id        BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	freelancer_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_offers_project_id ON offers(project_id);
CREATE INDEX IF NOT EXISTS idx_offers_freelancer_id ON offers(freelancer_id);

CREATE TABLE IF NOT EXISTS reviews (
	id          BIGSERIAL PRIMARY KEY,
	rating      INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
	comment     TEXT,
	project_id  BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	reviewer_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	target_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reviews_project_id ON reviews(project_id);
CREATE INDEX IF NOT EXISTS idx_reviews_target_id ON reviews(target_id);
`

func Migrate(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
