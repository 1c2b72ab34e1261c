package sqlite

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
	row := r.db.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE username = ?`, username)
	return scanPrincipal(row)
}

func (r *principalsRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM principals WHERE username = ?)`, username,
	).Scan(&exists)
	return exists, err
}

func (r *principalsRepo) SavePrincipal(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	now := r.now()
	if p.ID == "" {
		p.ID = idx.NewAt(now).String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username      = excluded.username,
			password_hash = excluded.password_hash,
			authorities   = excluded.authorities,
			active        = excluded.active,
			updated_at    = excluded.updated_at
		RETURNING `+principalColumns,
		p.ID,
		p.Username,
		p.PasswordHash,
		store.EncodeAuthorities(p.Authorities),
		p.Active,
		toMillis(p.CreatedAt),
		toMillis(now),
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
		`UPDATE principals SET active = ?, updated_at = ? WHERE id = ?`,
		active, toMillis(r.now()), id,
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
		created     int64
		updated     int64
	)

	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &authorities, &p.Active, &created, &updated)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}

	p.Authorities = store.DecodeAuthorities(authorities)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
