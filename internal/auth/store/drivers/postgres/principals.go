package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
)

const principalColumns = `id, username, password_hash, authorities, active, created_at, updated_at`

type principalsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.Principal{}, store.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE username = $1`, username)
	return scanPrincipal(row)
}

func (r *principalsRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM principals WHERE username = $1)`, username,
	).Scan(&exists)
	return exists, err
}

func (r *principalsRepo) SavePrincipal(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	if p.ID == "" {
		p.ID = idx.NewAt(now).String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username      = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash,
			authorities   = EXCLUDED.authorities,
			active        = EXCLUDED.active,
			updated_at    = EXCLUDED.updated_at
		RETURNING `+principalColumns,
		p.ID,
		p.Username,
		p.PasswordHash,
		store.EncodeAuthorities(p.Authorities),
		p.Active,
		p.CreatedAt.UTC(),
		now,
	)

	saved, err := scanPrincipal(row)
	if err != nil {
		return domain.Principal{}, mapConstraint(err)
	}
	return saved, nil
}

func (r *principalsRepo) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := idx.Parse(id); err != nil {
		return store.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE principals SET active = $1, updated_at = $2 WHERE id = $3`,
		active, r.now().UTC(), id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *principalsRepo) CountPrincipals(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM principals`).Scan(&n)
	return n, err
}

func scanPrincipal(row *sql.Row) (domain.Principal, error) {
	var (
		p           domain.Principal
		authorities string
	)

	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &authorities, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}

	p.Authorities = store.DecodeAuthorities(authorities)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
