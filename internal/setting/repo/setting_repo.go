package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/setting/entity"
)

// Repo stores settings in PostgreSQL, shared by every dashboard client
// pointed at the same database (kiosk terminals).
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureTable creates the dashboard_settings table when missing.
func (r *Repo) EnsureTable(ctx context.Context) error {
	var tblName sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT to_regclass('public.dashboard_settings')").Scan(&tblName)
	if err != nil {
		return err
	}
	if tblName.Valid {
		return nil
	}
	const createTable = `CREATE TABLE dashboard_settings (
		key varchar(64) PRIMARY KEY,
		value text NOT NULL DEFAULT '',
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`
	_, err = r.db.ExecContext(ctx, createTable)
	return err
}

// Get returns the setting or sql.ErrNoRows.
func (r *Repo) Get(ctx context.Context, key string) (*entity.Setting, error) {
	var s entity.Setting
	if err := r.db.GetContext(ctx, &s, `SELECT key, value, updated_at FROM dashboard_settings WHERE key=$1`, key); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts or replaces the value for key.
func (r *Repo) Upsert(ctx context.Context, s *entity.Setting) error {
	const q = `INSERT INTO dashboard_settings (key, value, updated_at) VALUES (:key, :value, :updated_at)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}
