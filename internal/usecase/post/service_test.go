package post_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/infra/wordpress"
	"wpdesk/internal/resilience/retry"
	"wpdesk/internal/usecase/post"
	siteUC "wpdesk/internal/usecase/site"
)

type fakeSites map[string]*entity.Site

func (f fakeSites) Get(_ context.Context, id string) (*entity.Site, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, siteUC.ErrSiteNotFound
}

type fakeCMS struct {
	site       *entity.Site
	created    *entity.PostInput
	updatedID  int64
	updated    *entity.PostInput
	deletedID  int64
	force      bool
	uploadName string
	uploadBody string
	err        error
}

func (f *fakeCMS) ListPosts(_ context.Context, p wordpress.ListPostsParams) (*entity.PostList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.PostList{Posts: []entity.Post{{ID: 1, Title: "Hello"}}, Total: 1, TotalPages: 1}, nil
}
func (f *fakeCMS) GetPost(_ context.Context, id int64) (*entity.Post, error) {
	return &entity.Post{ID: id}, f.err
}
func (f *fakeCMS) CreatePost(_ context.Context, in entity.PostInput) (*entity.Post, error) {
	f.created = &in
	return &entity.Post{ID: 10, Title: *in.Title, Status: *in.Status}, f.err
}
func (f *fakeCMS) UpdatePost(_ context.Context, id int64, in entity.PostInput) (*entity.Post, error) {
	f.updatedID, f.updated = id, &in
	return &entity.Post{ID: id}, f.err
}
func (f *fakeCMS) DeletePost(_ context.Context, id int64, force bool) error {
	f.deletedID, f.force = id, force
	return f.err
}
func (f *fakeCMS) UploadMedia(_ context.Context, filename, _ string, r io.Reader) (*entity.Media, error) {
	b, _ := io.ReadAll(r)
	f.uploadName, f.uploadBody = filename, string(b)
	return &entity.Media{ID: 7, SourceURL: "https://blog.example.com/cat.jpg"}, f.err
}
func (f *fakeCMS) ListCategories(context.Context) ([]entity.Term, error) {
	return []entity.Term{{ID: 1, Name: "News", Taxonomy: "category"}}, f.err
}
func (f *fakeCMS) ListTags(context.Context) ([]entity.Term, error) {
	return []entity.Term{{ID: 2, Name: "go", Taxonomy: "post_tag"}}, f.err
}

func setup() (*post.Service, *fakeCMS) {
	cms := &fakeCMS{}
	sites := fakeSites{"s1": {ID: "s1", URL: "https://blog.example.com"}}
	svc := &post.Service{
		Sites: sites,
		Connect: func(site *entity.Site) post.CMS {
			cms.site = site
			return cms
		},
	}
	return svc, cms
}

func strPtr(s string) *string { return &s }

func TestCreate_DefaultsToDraft(t *testing.T) {
	svc, cms := setup()

	got, err := svc.Create(context.Background(), "s1", entity.PostInput{Title: strPtr("Hello")})

	require.NoError(t, err)
	assert.Equal(t, entity.PostStatusDraft, got.Status)
	assert.Equal(t, "s1", cms.site.ID)
}

func TestCreate_RequiresTitle(t *testing.T) {
	svc, cms := setup()

	_, err := svc.Create(context.Background(), "s1", entity.PostInput{Content: strPtr("body")})

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.Nil(t, cms.site, "site is not contacted")
}

func TestUnknownSite(t *testing.T) {
	svc, _ := setup()

	_, err := svc.List(context.Background(), "missing", wordpress.ListPostsParams{})

	assert.ErrorIs(t, err, siteUC.ErrSiteNotFound)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc, _ := setup()

	_, err := svc.List(context.Background(), "s1", wordpress.ListPostsParams{Status: "archived"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	list, err := svc.List(context.Background(), "s1", wordpress.ListPostsParams{Status: "any"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestPublish(t *testing.T) {
	svc, cms := setup()

	_, err := svc.Publish(context.Background(), "s1", 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), cms.updatedID)
	require.NotNil(t, cms.updated.Status)
	assert.Equal(t, entity.PostStatusPublish, *cms.updated.Status)
}

func TestDelete(t *testing.T) {
	svc, cms := setup()

	require.NoError(t, svc.Delete(context.Background(), "s1", 5, true))
	assert.Equal(t, int64(5), cms.deletedID)
	assert.True(t, cms.force)

	assert.ErrorIs(t, svc.Delete(context.Background(), "s1", 0, false), entity.ErrInvalidInput)
}

func TestUploadMedia_SanitizesFilename(t *testing.T) {
	svc, cms := setup()

	m, err := svc.UploadMedia(context.Background(), "s1", `C:\Users\me\cat.jpg`, "image/jpeg", strings.NewReader("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, "cat.jpg", cms.uploadName)
	assert.Equal(t, "jpeg", cms.uploadBody)

	_, err = svc.UploadMedia(context.Background(), "s1", "  ", "", strings.NewReader(""))
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestClassifiedErrorsPassThrough(t *testing.T) {
	svc, cms := setup()
	cms.err = retry.Classify(&retry.HTTPError{StatusCode: http.StatusForbidden})

	_, err := svc.Categories(context.Background(), "s1")

	var ce *retry.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Same(t, cms.err, ce)
}

func TestTerms(t *testing.T) {
	svc, _ := setup()

	cats, err := svc.Categories(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "News", cats[0].Name)

	tags, err := svc.Tags(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "go", tags[0].Name)
}
