package fakeapi

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/devfolio/portfolio-sync/internal/models"
)

const graceSeed = `
email: grace@example.com
password: cobol-rules
full_name: Grace Hopper
slug: grace
headline: Compiler pioneer
social_links:
  - platform: github
    url: https://github.com/grace
skill_categories:
  - name: Languages
    skills:
      - name: COBOL
        level: 95
      - name: FLOW-MATIC
        level: 90
projects:
  - title: A-0 System
    start_date: "1951-05-01"
    featured: true
    skills: [flow-matic, unknown]
`

func TestLoadSeedDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"grace.yaml":   graceSeed,
		"broken.yml":   "email: [not, a, string",
		"nameless.yml": "email: x@example.com\npassword: secret123\n",
		"notes.txt":    "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s := newTestServer()
	loaded, err := s.LoadSeedDir(dir)
	if err != nil {
		t.Fatalf("LoadSeedDir failed: %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected 1 seeded account, got %d", loaded)
	}

	status, env := do(t, s, http.MethodGet, "/api/portfolios/grace", "", nil)
	if status != http.StatusOK {
		t.Fatalf("portfolio lookup failed: %d %s", status, env.Message)
	}
	var detail models.PortfolioDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("bad detail: %v", err)
	}

	if detail.Profile.Headline != "Compiler pioneer" {
		t.Errorf("unexpected headline %q", detail.Profile.Headline)
	}
	if len(detail.SocialLinks) != 1 || len(detail.SkillCategories) != 1 {
		t.Fatalf("unexpected content: %+v", detail)
	}
	if got := detail.SkillCategories[0].Skills; len(got) != 2 || got[0].Name != "COBOL" {
		t.Errorf("skills should keep file order, got %+v", got)
	}
	if len(detail.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(detail.Projects))
	}
	p := detail.Projects[0]
	if p.Slug != "a-0-system" || p.StartDate.String() != "1951-05-01" {
		t.Errorf("unexpected project %+v", p)
	}
	if len(p.Skills) != 1 || p.Skills[0].Name != "FLOW-MATIC" {
		t.Errorf("project skills should resolve by name, got %+v", p.Skills)
	}

	status, _ = do(t, s, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email: "grace@example.com", Password: "cobol-rules",
	})
	if status != http.StatusOK {
		t.Errorf("seeded account cannot log in: %d", status)
	}
}

func TestSeedRejectsDuplicateEmail(t *testing.T) {
	s := newTestServer()
	seed, err := ParseSeed([]byte(graceSeed))
	if err != nil {
		t.Fatalf("ParseSeed failed: %v", err)
	}
	if err := s.Seed(seed); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	if err := s.Seed(seed); err == nil {
		t.Error("expected duplicate email error")
	}
}

func TestLoadSeedDirMissing(t *testing.T) {
	s := newTestServer()
	if _, err := s.LoadSeedDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
