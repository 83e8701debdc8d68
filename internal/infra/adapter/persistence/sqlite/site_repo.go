package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/observability/metrics"
	"wpdesk/internal/repository"
)

type SiteRepo struct{ db *sql.DB }

func NewSiteRepo(db *sql.DB) repository.SiteRepository {
	return &SiteRepo{db: db}
}

func (repo *SiteRepo) Get(ctx context.Context, id string) (*entity.Site, error) {
	defer metrics.ObserveDBQuery("sites.get", time.Now())

	const query = `
SELECT id, name, url, username, app_password, created_at
FROM sites
WHERE id = ?
LIMIT 1`
	var s entity.Site
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.URL, &s.Username, &s.AppPassword, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (repo *SiteRepo) List(ctx context.Context) ([]*entity.Site, error) {
	defer metrics.ObserveDBQuery("sites.list", time.Now())

	const query = `
SELECT id, name, url, username, app_password, created_at
FROM sites
ORDER BY created_at ASC, id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sites := make([]*entity.Site, 0)
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.URL, &s.Username, &s.AppPassword, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		sites = append(sites, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return sites, nil
}

func (repo *SiteRepo) Create(ctx context.Context, site *entity.Site) error {
	defer metrics.ObserveDBQuery("sites.create", time.Now())

	const query = `
INSERT INTO sites (id, name, url, username, app_password, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		site.ID, site.Name, site.URL, site.Username, site.AppPassword, site.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", entity.ErrAlreadyExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SiteRepo) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDBQuery("sites.delete", time.Now())

	res, err := repo.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *SiteRepo) Count(ctx context.Context) (int, error) {
	defer metrics.ObserveDBQuery("sites.count", time.Now())

	var n int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	code := sqlErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
