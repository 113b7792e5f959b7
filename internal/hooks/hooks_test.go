package hooks

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devfolio/portfolio-sync/internal/fakeapi"
	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
	"github.com/devfolio/portfolio-sync/internal/session"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

type harness struct {
	api     *fakeapi.Server
	session *session.Store
	cache   *query.Client
	hooks   *Hooks
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := fakeapi.NewServer(fakeapi.Options{JWTSecret: "test-secret", Logger: logger})
	ts := httptest.NewServer(api.Router())
	t.Cleanup(ts.Close)

	cache := query.New(query.WithLogger(logger), query.WithRetryDelay(time.Millisecond))
	t.Cleanup(cache.Close)

	var store *session.Store
	httpClient := client.New(ts.URL+"/api",
		client.WithLogger(logger),
		client.WithTokenSource(client.TokenFunc(func() string { return store.AccessToken() })),
		client.WithUnauthorizedHandler(client.UnauthorizedFunc(func(token string) {
			store.ExpireToken(token)
			cache.Clear()
		})),
	)
	svc := services.New(httpClient)
	store = session.NewStore(services.NewAccount(svc.Auth, svc.Profile), session.NewMemoryStorage(), session.WithLogger(logger))

	return &harness{
		api:     api,
		session: store,
		cache:   cache,
		hooks:   New(cache, svc, store, DefaultConfig()),
	}
}

func (h *harness) register(t *testing.T) {
	t.Helper()
	_, err := h.session.Register(context.Background(), models.RegisterRequest{
		Email: "a@b.com", Password: "secret123", FullName: "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestReadsAreGatedOnSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if r := h.hooks.Projects.List(ctx); !r.IsIdle() {
		t.Errorf("anonymous read should be idle, got %s", r.Status)
	}
	if r := h.hooks.Profile.Get(ctx); !r.IsIdle() {
		t.Errorf("anonymous profile read should be idle, got %s", r.Status)
	}
	if hits := h.api.Hits("GET /api/me/projects"); hits != 0 {
		t.Errorf("gated read reached the server %d times", hits)
	}

	// Public reads are not gated
	if r := h.hooks.Portfolios.List(ctx); !r.IsSuccess() {
		t.Errorf("public read failed: %v", r.Err)
	}
}

func TestRepeatedReadUsesCache(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	first := h.hooks.Projects.List(ctx)
	second := h.hooks.Projects.List(ctx)

	if !first.IsSuccess() || !second.IsSuccess() {
		t.Fatalf("reads failed: %v / %v", first.Err, second.Err)
	}
	if hits := h.api.Hits("GET /api/me/projects"); hits != 1 {
		t.Errorf("expected 1 request, got %d", hits)
	}
}

func TestProjectWritesAreVisibleOnNextRead(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	if r := h.hooks.Projects.List(ctx); len(r.Data) != 0 {
		t.Fatalf("expected no projects, got %d", len(r.Data))
	}

	created, err := h.hooks.Projects.Create(ctx, models.CreateProjectRequest{Title: "Analytical Engine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r := h.hooks.Projects.List(ctx); len(r.Data) != 1 || r.Data[0].Title != "Analytical Engine" {
		t.Fatalf("list after create: %+v", r.Data)
	}

	update := models.UpdateProjectRequest{ID: created.ID, CreateProjectRequest: models.CreateProjectRequest{Title: "Difference Engine"}}
	if _, err := h.hooks.Projects.Update(ctx, update); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if r := h.hooks.Projects.Get(ctx, created.ID); r.Data == nil || r.Data.Title != "Difference Engine" {
		t.Fatalf("detail after update: %+v", r)
	}
	if r := h.hooks.Projects.List(ctx); r.Data[0].Title != "Difference Engine" {
		t.Fatalf("list after update: %+v", r.Data)
	}

	if err := h.hooks.Projects.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if r := h.hooks.Projects.List(ctx); len(r.Data) != 0 {
		t.Errorf("list after delete: %+v", r.Data)
	}
}

func TestCollectionWritesAreVisibleOnNextRead(t *testing.T) {
	start := models.NewDate(2020, time.September, 1)

	tests := []struct {
		name   string
		create func(ctx context.Context, h *Hooks) error
		count  func(ctx context.Context, h *Hooks) int
	}{
		{
			name: "experience",
			create: func(ctx context.Context, h *Hooks) error {
				_, err := h.Experience.Create(ctx, models.CreateExperienceRequest{Company: "Acme", Position: "Engineer", StartDate: start, Current: true})
				return err
			},
			count: func(ctx context.Context, h *Hooks) int { return len(h.Experience.List(ctx).Data) },
		},
		{
			name: "education",
			create: func(ctx context.Context, h *Hooks) error {
				_, err := h.Education.Create(ctx, models.CreateEducationRequest{Institution: "University of London", StartDate: start})
				return err
			},
			count: func(ctx context.Context, h *Hooks) int { return len(h.Education.List(ctx).Data) },
		},
		{
			name: "certificates",
			create: func(ctx context.Context, h *Hooks) error {
				_, err := h.Certificates.Create(ctx, models.CreateCertificateRequest{Name: "Go Programming"})
				return err
			},
			count: func(ctx context.Context, h *Hooks) int { return len(h.Certificates.List(ctx).Data) },
		},
		{
			name: "social links",
			create: func(ctx context.Context, h *Hooks) error {
				_, err := h.SocialLinks.Create(ctx, models.CreateSocialLinkRequest{Platform: "github", URL: "https://github.com/ada"})
				return err
			},
			count: func(ctx context.Context, h *Hooks) int { return len(h.SocialLinks.List(ctx).Data) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register(t)
			ctx := context.Background()

			if n := tt.count(ctx, h.hooks); n != 0 {
				t.Fatalf("expected empty collection, got %d", n)
			}
			if err := tt.create(ctx, h.hooks); err != nil {
				t.Fatalf("create failed: %v", err)
			}
			if n := tt.count(ctx, h.hooks); n != 1 {
				t.Errorf("expected 1 item after create, got %d", n)
			}
		})
	}
}

func TestCreateCategoryShowsInList(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	h.hooks.SkillCategories.List(ctx)

	if _, err := h.hooks.SkillCategories.Create(ctx, models.CreateSkillCategoryRequest{Name: "Frontend", SortOrder: 0}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r := h.hooks.SkillCategories.List(ctx)
	if len(r.Data) != 1 {
		t.Fatalf("expected 1 category, got %d", len(r.Data))
	}
	cat := r.Data[0]
	if cat.Name != "Frontend" {
		t.Errorf("unexpected name %q", cat.Name)
	}
	if cat.Skills == nil || len(cat.Skills) != 0 {
		t.Errorf("expected empty skills array, got %#v", cat.Skills)
	}
}

func TestSkillBatchesTouchOnlyTheirCategory(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	a, err := h.hooks.SkillCategories.Create(ctx, models.CreateSkillCategoryRequest{Name: "Frontend"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	b, err := h.hooks.SkillCategories.Create(ctx, models.CreateSkillCategoryRequest{Name: "Backend"})
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if _, err := h.hooks.Skills.CreateBatch(ctx, b.ID, []models.CreateSkillRequest{{Name: "Go", Level: 90}}); err != nil {
		t.Fatalf("seed batch failed: %v", err)
	}

	h.hooks.SkillCategories.List(ctx)
	h.hooks.Skills.List(ctx, a.ID)
	before := h.hooks.Skills.List(ctx, b.ID)
	h.hooks.Projects.List(ctx)

	created, err := h.hooks.Skills.CreateBatch(ctx, a.ID, []models.CreateSkillRequest{{Name: "React", Level: 80, Icon: nil, SortOrder: 0}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if got := h.hooks.Skills.List(ctx, a.ID); len(got.Data) != 1 || got.Data[0].Name != "React" {
		t.Errorf("category A skills: %+v", got.Data)
	}
	if query.Peek[[]models.Skill](h.cache, SkillsKeyFor(b.ID)).Stale {
		t.Error("category B must not be invalidated")
	}
	if query.Peek[[]models.Project](h.cache, ProjectsKey).Stale {
		t.Error("projects must not be invalidated by skill writes")
	}
	if !query.Peek[[]models.SkillCategory](h.cache, SkillCategoriesKey).Stale {
		t.Error("category list should be invalidated")
	}

	if err := h.hooks.Skills.DeleteBatch(ctx, a.ID, []int64{created[0].ID}); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if got := h.hooks.Skills.List(ctx, a.ID); len(got.Data) != 0 {
		t.Errorf("category A should be empty, got %+v", got.Data)
	}

	after := h.hooks.Skills.List(ctx, b.ID)
	if len(after.Data) != len(before.Data) || after.Data[0].Name != "Go" {
		t.Errorf("category B changed: %+v", after.Data)
	}
	if hits := h.api.Hits("GET /api/me/skill-categories/{id}/skills"); hits != 4 {
		t.Errorf("expected 4 skill list requests, got %d", hits)
	}

	// Deleting through the wrong category is rejected and invalidates nothing
	err = h.hooks.Skills.DeleteBatch(ctx, a.ID, []int64{after.Data[0].ID})
	if !client.IsNotFound(err) {
		t.Errorf("cross-category delete: got %v, want 404", err)
	}
}

func TestUploadsRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	png := func() client.File {
		return client.File{Name: "pic.png", ContentType: "image/png", Reader: strings.NewReader("\x89PNG")}
	}

	h.hooks.Profile.Get(ctx)
	profile, err := h.hooks.Profile.UploadAvatar(ctx, png())
	if err != nil {
		t.Fatalf("UploadAvatar failed: %v", err)
	}
	if profile.AvatarURL == "" {
		t.Fatal("expected avatar URL")
	}
	if r := h.hooks.Profile.Get(ctx); r.Data == nil || r.Data.AvatarURL != profile.AvatarURL {
		t.Errorf("profile read after upload: %+v", r)
	}
	if h.session.Snapshot().User.AvatarURL != profile.AvatarURL {
		t.Error("session user should carry the new avatar")
	}

	project, err := h.hooks.Projects.Create(ctx, models.CreateProjectRequest{Title: "Engine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	h.hooks.Projects.List(ctx)
	covered, err := h.hooks.Projects.UploadCover(ctx, project.ID, png())
	if err != nil {
		t.Fatalf("UploadCover failed: %v", err)
	}
	if r := h.hooks.Projects.List(ctx); r.Data[0].CoverImageURL == "" || r.Data[0].CoverImageURL != covered.CoverImageURL {
		t.Errorf("project read after upload: %+v", r.Data)
	}

	cert, err := h.hooks.Certificates.Create(ctx, models.CreateCertificateRequest{Name: "Go"})
	if err != nil {
		t.Fatalf("Create certificate failed: %v", err)
	}
	withFile, err := h.hooks.Certificates.UploadFile(ctx, cert.ID, client.File{Name: "cert.pdf", Reader: strings.NewReader("%PDF")})
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if r := h.hooks.Certificates.Get(ctx, cert.ID); r.Data == nil || r.Data.FileURL != withFile.FileURL {
		t.Errorf("certificate read after upload: %+v", r)
	}

	cat, _ := h.hooks.SkillCategories.Create(ctx, models.CreateSkillCategoryRequest{Name: "Tools"})
	skills, err := h.hooks.Skills.CreateBatch(ctx, cat.ID, []models.CreateSkillRequest{{Name: "Docker", Level: 60}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	h.hooks.Skills.List(ctx, cat.ID)
	icon, err := h.hooks.Skills.UploadIcon(ctx, skills[0].ID, png())
	if err != nil {
		t.Fatalf("UploadIcon failed: %v", err)
	}
	r := h.hooks.Skills.List(ctx, cat.ID)
	if icon.IconURL == nil || r.Data[0].IconURL == nil || *r.Data[0].IconURL != *icon.IconURL {
		t.Errorf("skill read after upload: %+v", r.Data)
	}
}

func TestProfileUpdateRefreshesSessionUser(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	updated, err := h.hooks.Profile.Update(ctx, models.UpdateProfileRequest{Headline: ptr("Mathematician")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Headline != "Mathematician" {
		t.Errorf("unexpected headline %q", updated.Headline)
	}
	if got := h.session.Snapshot().User.Headline; got != "Mathematician" {
		t.Errorf("session user headline %q", got)
	}
	if h.hooks.IsMutating() {
		t.Error("no write should be in flight")
	}
}

func TestUnauthorizedBlocksLaterReads(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	h.api.Revoke(h.session.AccessToken())

	r := h.hooks.Experience.List(ctx)
	if !client.IsUnauthorized(r.Err) {
		t.Fatalf("expected 401, got %v", r.Err)
	}
	if snap := h.session.Snapshot(); snap.State != session.Anonymous || snap.AccessToken != "" {
		t.Fatalf("session should be cleared, got %+v", snap)
	}

	before := h.api.Hits("GET /api/me/projects")
	if r := h.hooks.Projects.List(ctx); !r.IsIdle() {
		t.Errorf("read after 401 should be idle, got %s", r.Status)
	}
	if h.api.Hits("GET /api/me/projects") != before {
		t.Error("read after 401 must not be sent")
	}

	if _, err := h.session.Login(ctx, models.LoginRequest{Email: "a@b.com", Password: "secret123"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if r := h.hooks.Projects.List(ctx); !r.IsSuccess() {
		t.Errorf("read after new login failed: %v", r.Err)
	}
}

func TestPublicPortfolios(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	if _, err := h.hooks.Projects.Create(ctx, models.CreateProjectRequest{Title: "Engine"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	slug := h.session.Snapshot().User.Slug
	h.session.Logout()

	gallery := h.hooks.Portfolios.List(ctx)
	if len(gallery.Data) != 1 || gallery.Data[0].Slug != slug {
		t.Fatalf("unexpected gallery %+v", gallery.Data)
	}

	detail := h.hooks.Portfolios.Get(ctx, slug)
	if detail.Data == nil || len(detail.Data.Projects) != 1 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if r := h.hooks.Portfolios.GetProject(ctx, slug, detail.Data.Projects[0].Slug); r.Data == nil || r.Data.Title != "Engine" {
		t.Errorf("unexpected project %+v", r)
	}

	missing := h.hooks.Portfolios.Get(ctx, "nobody")
	if !client.IsNotFound(missing.Err) {
		t.Errorf("expected 404, got %v", missing.Err)
	}
	if hits := h.api.Hits("GET /api/portfolios/{slug}"); hits != 2 {
		t.Errorf("404 must not be retried, got %d detail requests", hits)
	}

	err := h.hooks.Portfolios.Contact(ctx, slug, models.ContactRequest{Name: "Charles", Email: "c@b.com", Message: "Hello there, Ada"})
	if err != nil {
		t.Fatalf("Contact failed: %v", err)
	}
	if len(h.api.Messages()) != 1 {
		t.Error("expected the message to arrive")
	}
}

func TestPrefetch(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	ctx := context.Background()

	if err := h.hooks.Prefetch(ctx); err != nil {
		t.Fatalf("Prefetch failed: %v", err)
	}
	h.hooks.Education.List(ctx)
	h.hooks.SocialLinks.List(ctx)

	for _, route := range []string{"GET /api/me/education", "GET /api/me/social-links", "GET /api/me/skill-categories"} {
		if hits := h.api.Hits(route); hits != 1 {
			t.Errorf("%s: expected 1 request, got %d", route, hits)
		}
	}
}
