package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/observability/metrics"
	"wpdesk/internal/repository"
)

const uniqueViolation = "23505"

type SiteRepo struct{ db *sql.DB }

func NewSiteRepo(db *sql.DB) repository.SiteRepository {
	return &SiteRepo{db: db}
}

func scanSite(scan func(dest ...any) error) (*entity.Site, error) {
	var site entity.Site
	if err := scan(&site.ID, &site.Name, &site.URL, &site.Username, &site.AppPassword, &site.CreatedAt); err != nil {
		return nil, err
	}
	return &site, nil
}

func (repo *SiteRepo) Get(ctx context.Context, id string) (*entity.Site, error) {
	defer metrics.ObserveDBQuery("sites.get", time.Now())

	const query = `
SELECT id, name, url, username, app_password, created_at
FROM sites
WHERE id = $1
LIMIT 1`
	site, err := scanSite(repo.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return site, nil
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
		site, err := scanSite(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		sites = append(sites, site)
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
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		site.ID, site.Name, site.URL, site.Username, site.AppPassword, site.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("Create: %w", entity.ErrAlreadyExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SiteRepo) Delete(ctx context.Context, id string) error {
	defer metrics.ObserveDBQuery("sites.delete", time.Now())

	const query = `DELETE FROM sites WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
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
