package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storyshare/service-api/internal/account/entity"
)

// AccountRepo provides data access for the accounts table using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
// Convenience for early development; prefer migrations in production.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS accounts (
  id varchar(32) PRIMARY KEY,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  is_author BOOLEAN NOT NULL DEFAULT false,
  verified BOOLEAN NOT NULL DEFAULT false,
  verify_token TEXT,
  verify_token_expires_at TIMESTAMPTZ,
  session_token TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_verify_token ON accounts(verify_token);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

type accountRow struct {
	ID                   string     `db:"id"`
	FirstName            string     `db:"first_name"`
	LastName             string     `db:"last_name"`
	Email                string     `db:"email"`
	PasswordHash         string     `db:"password_hash"`
	IsAuthor             bool       `db:"is_author"`
	Verified             bool       `db:"verified"`
	VerifyToken          *string    `db:"verify_token"`
	VerifyTokenExpiresAt *time.Time `db:"verify_token_expires_at"`
	SessionToken         *string    `db:"session_token"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

func (row accountRow) toEntity() entity.Account {
	return entity.Account{
		ID:                   row.ID,
		FirstName:            row.FirstName,
		LastName:             row.LastName,
		Email:                row.Email,
		PasswordHash:         row.PasswordHash,
		IsAuthor:             row.IsAuthor,
		Verified:             row.Verified,
		VerifyToken:          row.VerifyToken,
		VerifyTokenExpiresAt: row.VerifyTokenExpiresAt,
		SessionToken:         row.SessionToken,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

const accountColumns = `id, first_name, last_name, email, password_hash, is_author, verified,
	verify_token, verify_token_expires_at, session_token, created_at, updated_at`

// Create inserts a new account row and fills in the generated timestamps.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id, first_name, last_name, email, password_hash, is_author, verified, verify_token, verify_token_expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q,
		a.ID, a.FirstName, a.LastName, a.Email, a.PasswordHash, a.IsAuthor, a.Verified,
		a.VerifyToken, a.VerifyTokenExpiresAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// GetByEmail returns the account matched by exact email or sql.ErrNoRows.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	a := row.toEntity()
	return &a, nil
}

// GetByID fetches a full account row.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	a := row.toEntity()
	return &a, nil
}

// GetByVerifyToken returns the account holding the exact verification token.
func (r *AccountRepo) GetByVerifyToken(ctx context.Context, tok string) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE verify_token=$1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, q, tok); err != nil {
		return nil, err
	}
	a := row.toEntity()
	return &a, nil
}

// List returns all accounts, oldest first. No pagination.
func (r *AccountRepo) List(ctx context.Context) ([]entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`
	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]entity.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// MarkVerified flips verified to true. The transition is one-way.
func (r *AccountRepo) MarkVerified(ctx context.Context, id string) error {
	const q = `UPDATE accounts SET verified=true, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// SaveSessionToken records the latest issued credential on the account.
func (r *AccountRepo) SaveSessionToken(ctx context.Context, id, tok string) error {
	const q = `UPDATE accounts SET session_token=$2, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, tok)
	return err
}

// Delete removes an account. Only expired, never-verified registrations are
// deleted by the service.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	return err
}
