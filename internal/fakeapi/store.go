package fakeapi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/devfolio/portfolio-sync/internal/models"
)

// ContactMessage is a message left on a public portfolio
type ContactMessage struct {
	Slug       string
	Request    models.ContactRequest
	ReceivedAt time.Time
}

type account struct {
	id           int64
	email        string
	passwordHash []byte

	profile       models.Profile
	projects      map[int64]models.Project
	projectSkills map[int64][]int64
	experience    map[int64]models.Experience
	education     map[int64]models.Education
	certificates  map[int64]models.Certificate
	socialLinks   map[int64]models.SocialLink
	categories    map[int64]models.SkillCategory
	skills        map[int64]models.Skill
}

// store holds all accounts. Ids come from one sequence so they are
// globally unique, like the real backend's.
type store struct {
	nextID   int64
	accounts map[int64]*account
	byEmail  map[string]*account
	files    map[string]storedFile
}

type storedFile struct {
	contentType string
	data        []byte
}

func newStore() *store {
	return &store{
		accounts: make(map[int64]*account),
		byEmail:  make(map[string]*account),
		files:    make(map[string]storedFile),
	}
}

func (st *store) id() int64 {
	st.nextID++
	return st.nextID
}

func (st *store) createAccount(email string, hash []byte, fullName string) *account {
	a := &account{
		id:            st.id(),
		email:         email,
		passwordHash:  hash,
		projects:      make(map[int64]models.Project),
		projectSkills: make(map[int64][]int64),
		experience:    make(map[int64]models.Experience),
		education:     make(map[int64]models.Education),
		certificates:  make(map[int64]models.Certificate),
		socialLinks:   make(map[int64]models.SocialLink),
		categories:    make(map[int64]models.SkillCategory),
		skills:        make(map[int64]models.Skill),
	}
	a.profile = models.Profile{
		ID:       st.id(),
		Email:    email,
		FullName: fullName,
		Slug:     st.uniqueProfileSlug(slugify(fullName), 0),
	}
	st.accounts[a.id] = a
	st.byEmail[strings.ToLower(email)] = a
	return a
}

func (st *store) bySlug(slug string) *account {
	for _, a := range st.accounts {
		if a.profile.Slug == slug {
			return a
		}
	}
	return nil
}

func (st *store) uniqueProfileSlug(base string, exceptID int64) string {
	if base == "" {
		base = "user"
	}
	slug := base
	for n := 2; ; n++ {
		owner := st.bySlug(slug)
		if owner == nil || owner.id == exceptID {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (a *account) uniqueProjectSlug(title string) string {
	base := slugify(title)
	if base == "" {
		base = "project"
	}
	slug := base
	for n := 2; ; n++ {
		taken := false
		for _, p := range a.projects {
			if p.Slug == slug {
				taken = true
				break
			}
		}
		if !taken {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// categoryWithSkills embeds the category's skills ordered by sortOrder
func (a *account) categoryWithSkills(c models.SkillCategory) models.SkillCategory {
	c.Skills = a.skillsOf(c.ID)
	return c
}

func (a *account) skillsOf(categoryID int64) []models.Skill {
	out := []models.Skill{}
	for _, sk := range a.skills {
		if sk.CategoryID == categoryID {
			out = append(out, sk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// projectWithSkills resolves the linked skill ids
func (a *account) projectWithSkills(p models.Project) models.Project {
	p.Skills = []models.Skill{}
	for _, id := range a.projectSkills[p.ID] {
		if sk, ok := a.skills[id]; ok {
			p.Skills = append(p.Skills, sk)
		}
	}
	return p
}

func (a *account) detail() models.PortfolioDetail {
	d := models.PortfolioDetail{
		Profile:         a.profile,
		Projects:        []models.Project{},
		Experience:      sorted(a.experience),
		Education:       sorted(a.education),
		SkillCategories: []models.SkillCategory{},
		Certificates:    sorted(a.certificates),
		SocialLinks:     sorted(a.socialLinks),
	}
	d.Profile.Email = ""
	for _, p := range sorted(a.projects) {
		d.Projects = append(d.Projects, a.projectWithSkills(p))
	}
	for _, c := range sorted(a.categories) {
		d.SkillCategories = append(d.SkillCategories, a.categoryWithSkills(c))
	}
	return d
}

func (a *account) summary() models.PortfolioSummary {
	s := models.PortfolioSummary{
		Slug:         a.profile.Slug,
		FullName:     a.profile.FullName,
		Headline:     a.profile.Headline,
		Location:     a.profile.Location,
		AvatarURL:    a.profile.AvatarURL,
		ProjectCount: len(a.projects),
		TopSkills:    []string{},
	}
	all := make([]models.Skill, 0, len(a.skills))
	for _, sk := range a.skills {
		all = append(all, sk)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Level != all[j].Level {
			return all[i].Level > all[j].Level
		}
		return all[i].ID < all[j].ID
	})
	for i := 0; i < len(all) && i < 5; i++ {
		s.TopSkills = append(s.TopSkills, all[i].Name)
	}
	return s
}

// sorted returns map values ordered by id
func sorted[T any](rows map[int64]T) []T {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// deleteSkill removes a skill and unlinks it from projects
func (a *account) deleteSkill(id int64) {
	delete(a.skills, id)
	for pid, ids := range a.projectSkills {
		kept := ids[:0]
		for _, sid := range ids {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		a.projectSkills[pid] = kept
	}
}
