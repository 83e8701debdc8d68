// Package post authors and publishes content on a connected WordPress site.
//
// Every operation resolves the site first and then talks to it through a CMS
// client. Upstream failures are returned unchanged as *retry.ClassifiedError.
package post

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/infra/wordpress"
)

// CMS is the subset of the WordPress client the use cases need.
type CMS interface {
	ListPosts(ctx context.Context, params wordpress.ListPostsParams) (*entity.PostList, error)
	GetPost(ctx context.Context, id int64) (*entity.Post, error)
	CreatePost(ctx context.Context, in entity.PostInput) (*entity.Post, error)
	UpdatePost(ctx context.Context, id int64, in entity.PostInput) (*entity.Post, error)
	DeletePost(ctx context.Context, id int64, force bool) error
	UploadMedia(ctx context.Context, filename, contentType string, r io.Reader) (*entity.Media, error)
	ListCategories(ctx context.Context) ([]entity.Term, error)
	ListTags(ctx context.Context) ([]entity.Term, error)
}

// SiteFinder resolves a site id. It returns an error when the site is unknown.
type SiteFinder interface {
	Get(ctx context.Context, id string) (*entity.Site, error)
}

// Service provides post, media and taxonomy use cases.
type Service struct {
	Sites   SiteFinder
	Connect func(site *entity.Site) CMS
}

func (s *Service) client(ctx context.Context, siteID string) (CMS, error) {
	site, err := s.Sites.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return s.Connect(site), nil
}

// List returns one page of posts.
func (s *Service) List(ctx context.Context, siteID string, params wordpress.ListPostsParams) (*entity.PostList, error) {
	if params.Page < 0 || params.PerPage < 0 {
		return nil, &entity.ValidationError{Field: "page", Message: "page and per_page must not be negative"}
	}
	if params.Status != "" && params.Status != "any" {
		status := params.Status
		if err := (&entity.PostInput{Status: &status}).Validate(false); err != nil {
			return nil, err
		}
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.ListPosts(ctx, params)
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, siteID string, id int64) (*entity.Post, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.GetPost(ctx, id)
}

// Create creates a post. New posts default to draft.
func (s *Service) Create(ctx context.Context, siteID string, in entity.PostInput) (*entity.Post, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if in.Status == nil {
		draft := entity.PostStatusDraft
		in.Status = &draft
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.CreatePost(ctx, in)
}

// Update changes the fields set in in.
func (s *Service) Update(ctx context.Context, siteID string, id int64, in entity.PostInput) (*entity.Post, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.UpdatePost(ctx, id, in)
}

// Publish sets a post's status to publish.
func (s *Service) Publish(ctx context.Context, siteID string, id int64) (*entity.Post, error) {
	status := entity.PostStatusPublish
	return s.Update(ctx, siteID, id, entity.PostInput{Status: &status})
}

// Delete moves a post to the trash, or removes it permanently when force is set.
func (s *Service) Delete(ctx context.Context, siteID string, id int64, force bool) error {
	if err := validateID(id); err != nil {
		return err
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return err
	}
	return c.DeletePost(ctx, id, force)
}

// UploadMedia uploads a file to the site's media library.
func (s *Service) UploadMedia(ctx context.Context, siteID, filename, contentType string, r io.Reader) (*entity.Media, error) {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, &entity.ValidationError{Field: "file", Message: "file name is required"}
	}
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.UploadMedia(ctx, filename, contentType, r)
}

// Categories lists the site's categories.
func (s *Service) Categories(ctx context.Context, siteID string) ([]entity.Term, error) {
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.ListCategories(ctx)
}

// Tags lists the site's tags.
func (s *Service) Tags(ctx context.Context, siteID string) ([]entity.Term, error) {
	c, err := s.client(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return c.ListTags(ctx)
}

func validateID(id int64) error {
	if id <= 0 {
		return &entity.ValidationError{Field: "id", Message: fmt.Sprintf("post id must be positive, got %d", id)}
	}
	return nil
}
