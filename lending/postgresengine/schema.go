package postgresengine

import (
	"context"
)

// schemaStatements holds the DDL for the lending stores, in dependency
// order. The partial unique index on active loans is the storage-level
// backstop for the one-active-loan-per-book invariant; the row locks in
// the loan protocols are the primary discipline.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		date_of_birth date NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS books (
		id uuid PRIMARY KEY,
		title text NOT NULL,
		genre text NOT NULL,
		price_cents bigint NOT NULL CHECK (price_cents > 0),
		author_id uuid NOT NULL REFERENCES authors (id),
		version bigint NOT NULL DEFAULT 1,
		CONSTRAINT uk_book_title_author UNIQUE (title, author_id)
	)`,

	`CREATE TABLE IF NOT EXISTS members (
		id uuid PRIMARY KEY,
		username text NOT NULL CONSTRAINT uk_member_username UNIQUE,
		email text NOT NULL CONSTRAINT uk_member_email UNIQUE,
		address text NOT NULL DEFAULT '',
		phone_number text NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS loans (
		id uuid PRIMARY KEY,
		member_id uuid NOT NULL REFERENCES members (id),
		book_id uuid NOT NULL REFERENCES books (id),
		lend_date date NOT NULL,
		return_date date
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS uk_loan_active_book
		ON loans (book_id) WHERE return_date IS NULL`,

	`CREATE TABLE IF NOT EXISTS loan_journal (
		id bigserial PRIMARY KEY,
		loan_id uuid NOT NULL,
		action text NOT NULL,
		payload jsonb NOT NULL,
		recorded_at timestamptz NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates all tables and indexes of the lending stores if
// they do not exist yet. Statements run one by one so every adapter
// (pgx, sql.DB, sqlx) behaves the same.
func (s Store) EnsureSchema(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := s.executeStatement(ctx, statement, "ensure schema"); err != nil {
			return err
		}
	}

	return nil
}
