package fakeapi

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/devfolio/portfolio-sync/internal/models"
)

// Seed is a demo account loaded from YAML so the dev server starts with
// public portfolios to browse
type Seed struct {
	Email           string         `yaml:"email"`
	Password        string         `yaml:"password"`
	FullName        string         `yaml:"full_name"`
	Slug            string         `yaml:"slug"`
	Headline        string         `yaml:"headline"`
	Bio             string         `yaml:"bio"`
	Location        string         `yaml:"location"`
	ContactEmail    string         `yaml:"contact_email"`
	SocialLinks     []seedLink     `yaml:"social_links"`
	SkillCategories []seedCategory `yaml:"skill_categories"`
	Projects        []seedProject  `yaml:"projects"`
}

type seedLink struct {
	Platform string `yaml:"platform"`
	URL      string `yaml:"url"`
}

type seedCategory struct {
	Name   string      `yaml:"name"`
	Skills []seedSkill `yaml:"skills"`
}

type seedSkill struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

type seedProject struct {
	Title     string   `yaml:"title"`
	Summary   string   `yaml:"summary"`
	RepoURL   string   `yaml:"repo_url"`
	LiveURL   string   `yaml:"live_url"`
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	Featured  bool     `yaml:"featured"`
	Skills    []string `yaml:"skills"`
}

// ParseSeed decodes and checks one seed document
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if seed.Email == "" {
		return Seed{}, fmt.Errorf("email is required")
	}
	if seed.Password == "" {
		return Seed{}, fmt.Errorf("password is required")
	}
	if seed.FullName == "" {
		return Seed{}, fmt.Errorf("full_name is required")
	}
	return seed, nil
}

// LoadSeedDir seeds every *.yaml / *.yml file in dir. Broken files are
// logged and skipped; the count of seeded accounts is returned.
func (s *Server) LoadSeedDir(dir string) (int, error) {
	s.logger.Info("loading seed accounts", "dir", dir)

	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("failed to read seed directory: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			s.logger.Warn("failed to read seed", "file", file, "error", err)
			continue
		}
		seed, err := ParseSeed(data)
		if err != nil {
			s.logger.Warn("failed to load seed", "file", file, "error", err)
			continue
		}
		if err := s.Seed(seed); err != nil {
			s.logger.Warn("failed to seed account", "file", file, "error", err)
			continue
		}
		loaded++
	}

	s.logger.Info("seed accounts loaded", "count", loaded, "total_files", len(files))
	return loaded, nil
}

// Seed creates an account with its portfolio content
func (s *Server) Seed(seed Seed) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	projects := make([]models.Project, 0, len(seed.Projects))
	for _, p := range seed.Projects {
		project := models.Project{
			Title:    p.Title,
			Summary:  p.Summary,
			RepoURL:  p.RepoURL,
			LiveURL:  p.LiveURL,
			Featured: p.Featured,
		}
		if p.StartDate != "" {
			if project.StartDate, err = models.ParseDate(p.StartDate); err != nil {
				return fmt.Errorf("project %q: %w", p.Title, err)
			}
		}
		if p.EndDate != "" {
			end, err := models.ParseDate(p.EndDate)
			if err != nil {
				return fmt.Errorf("project %q: %w", p.Title, err)
			}
			project.EndDate = &end
		}
		projects = append(projects, project)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.byEmail[strings.ToLower(seed.Email)]; exists {
		return fmt.Errorf("email %s is already registered", seed.Email)
	}

	a := s.data.createAccount(seed.Email, hash, seed.FullName)
	a.profile.Headline = seed.Headline
	a.profile.Bio = seed.Bio
	a.profile.Location = seed.Location
	a.profile.ContactEmail = seed.ContactEmail
	if seed.Slug != "" {
		a.profile.Slug = s.data.uniqueProfileSlug(slugify(seed.Slug), a.id)
	}

	for i, l := range seed.SocialLinks {
		id := s.data.id()
		a.socialLinks[id] = models.SocialLink{ID: id, Platform: l.Platform, URL: l.URL, SortOrder: i}
	}

	skillIDs := make(map[string]int64)
	for i, c := range seed.SkillCategories {
		catID := s.data.id()
		a.categories[catID] = models.SkillCategory{ID: catID, Name: c.Name, SortOrder: i}
		for j, sk := range c.Skills {
			id := s.data.id()
			a.skills[id] = models.Skill{ID: id, CategoryID: catID, Name: sk.Name, Level: sk.Level, SortOrder: j}
			skillIDs[strings.ToLower(sk.Name)] = id
		}
	}

	for i, project := range projects {
		project.ID = s.data.id()
		project.Slug = a.uniqueProjectSlug(project.Title)
		project.SortOrder = i
		a.projects[project.ID] = project

		for _, name := range seed.Projects[i].Skills {
			if id, ok := skillIDs[strings.ToLower(name)]; ok {
				a.projectSkills[project.ID] = append(a.projectSkills[project.ID], id)
			}
		}
	}

	s.logger.Info("account seeded", "account_id", a.id, "slug", a.profile.Slug, "projects", len(projects))
	return nil
}
