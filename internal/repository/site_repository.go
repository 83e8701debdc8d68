// Package repository declares the persistence ports used by the use cases.
package repository

import (
	"context"

	"wpdesk/internal/domain/entity"
)

// SiteRepository stores connected WordPress sites.
// Get returns nil, nil when no site has the id.
type SiteRepository interface {
	Get(ctx context.Context, id string) (*entity.Site, error)
	List(ctx context.Context) ([]*entity.Site, error)
	Create(ctx context.Context, site *entity.Site) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
