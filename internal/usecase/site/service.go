package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/observability/metrics"
	"wpdesk/internal/repository"
)

// CreateInput represents the input parameters for connecting a site.
type CreateInput struct {
	Name        string
	URL         string
	Username    string
	AppPassword string
}

// Verifier checks a site's credentials against the live site.
// A rejected login is returned as the upstream classified error.
type Verifier func(ctx context.Context, site *entity.Site) error

// Service provides site management use cases.
type Service struct {
	Repo   repository.SiteRepository
	Verify Verifier

	// NewID and Now default to uuid.NewString and time.Now.
	NewID func() string
	Now   func() time.Time
}

// List returns every connected site, oldest first.
func (s *Service) List(ctx context.Context) ([]*entity.Site, error) {
	sites, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// Get returns the site with id, or ErrSiteNotFound.
func (s *Service) Get(ctx context.Context, id string) (*entity.Site, error) {
	if id == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	site, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}
	return site, nil
}

// Create validates the input, verifies the credentials against the site and
// stores it. Nothing is stored when verification fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Site, error) {
	site := &entity.Site{
		Name:        in.Name,
		URL:         in.URL,
		Username:    in.Username,
		AppPassword: in.AppPassword,
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}

	if s.Verify != nil {
		if err := s.Verify(ctx, site); err != nil {
			slog.Warn("site credential verification failed",
				slog.String("url", site.URL),
				slog.String("username", site.Username),
				slog.Any("error", err))
			return nil, err
		}
	}

	site.ID = s.newID()
	site.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	if err := s.Repo.Create(ctx, site); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil, ErrDuplicateSite
		}
		return nil, fmt.Errorf("create site: %w", err)
	}

	slog.Info("site connected",
		slog.String("site_id", site.ID),
		slog.String("url", site.URL))
	s.refreshCount(ctx)
	return site, nil
}

// Delete disconnects a site.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &entity.ValidationError{Field: "id", Message: "id is required"}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrSiteNotFound
		}
		return fmt.Errorf("delete site: %w", err)
	}
	s.refreshCount(ctx)
	return nil
}

// RefreshMetrics publishes the current site count.
func (s *Service) RefreshMetrics(ctx context.Context) {
	s.refreshCount(ctx)
}

func (s *Service) refreshCount(ctx context.Context) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		slog.Warn("failed to count sites", slog.Any("error", err))
		return
	}
	metrics.UpdateSitesTotal(n)
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
