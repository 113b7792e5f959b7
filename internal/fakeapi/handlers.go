package fakeapi

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/devfolio/portfolio-sync/internal/models"
)

// Auth handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	s.mu.Lock()
	a := s.data.byEmail[strings.ToLower(req.Email)]
	s.mu.Unlock()

	if a == nil || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		s.respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	s.respondToken(w, http.StatusOK, "Login successful", a)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	// MinCost keeps test suites fast; this backend is never deployed
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.mu.Lock()
	if _, exists := s.data.byEmail[strings.ToLower(req.Email)]; exists {
		s.mu.Unlock()
		s.respondError(w, http.StatusConflict, "Email is already registered")
		return
	}
	a := s.data.createAccount(req.Email, hash, req.FullName)
	s.mu.Unlock()

	s.logger.Info("account registered", "account_id", a.id, "slug", a.profile.Slug)
	s.respondToken(w, http.StatusCreated, "Registration successful", a)
}

func (s *Server) respondToken(w http.ResponseWriter, status int, message string, a *account) {
	token, err := s.IssueToken(a.id, a.email, s.opts.TokenTTL)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, status, message, models.AuthResponse{Token: token})
}

// Profile handlers

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, "", a.profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}

	if req.Slug != nil && *req.Slug != a.profile.Slug {
		if owner := s.data.bySlug(*req.Slug); owner != nil {
			s.respondError(w, http.StatusConflict, "Slug is already taken")
			return
		}
		a.profile.Slug = *req.Slug
	}
	if req.FullName != nil {
		a.profile.FullName = *req.FullName
	}
	if req.Headline != nil {
		a.profile.Headline = *req.Headline
	}
	if req.Bio != nil {
		a.profile.Bio = *req.Bio
	}
	if req.Location != nil {
		a.profile.Location = *req.Location
	}

	s.respondJSON(w, http.StatusOK, "Profile updated", a.profile)
}

func (s *Server) handleUpdateContactEmail(w http.ResponseWriter, r *http.Request) {
	var req models.ContactEmailRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	a.profile.ContactEmail = req.ContactEmail
	s.respondJSON(w, http.StatusOK, "Contact email updated", a.profile)
}

func (s *Server) handleSetProjectSkills(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ProjectSkillsRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	p, exists := a.projects[id]
	if !exists {
		s.respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	for _, sid := range req.SkillIDs {
		if _, exists := a.skills[sid]; !exists {
			s.respondError(w, http.StatusBadRequest, "unknown skill id")
			return
		}
	}

	a.projectSkills[id] = append([]int64{}, req.SkillIDs...)
	s.respondJSON(w, http.StatusOK, "Project skills updated", a.projectWithSkills(p))
}

// Skill handlers. Skills are only ever written in batches scoped to one
// category; ids outside that category are rejected.

func (s *Server) category(w http.ResponseWriter, r *http.Request) (*account, int64, bool) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return nil, 0, false
	}
	a, ok := s.account(w, r)
	if !ok {
		return nil, 0, false
	}
	if _, exists := a.categories[id]; !exists {
		s.respondError(w, http.StatusNotFound, "Skill category not found")
		return nil, 0, false
	}
	return a, id, true
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, categoryID, ok := s.category(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, "", a.skillsOf(categoryID))
}

func (s *Server) handleCreateSkills(w http.ResponseWriter, r *http.Request) {
	var req []models.CreateSkillRequest
	if !s.decode(w, r, &req) || !s.validBatch(w, len(req)) {
		return
	}
	for _, item := range req {
		if !s.valid(w, item) {
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, categoryID, ok := s.category(w, r)
	if !ok {
		return
	}

	created := make([]models.Skill, 0, len(req))
	for _, item := range req {
		sk := models.Skill{
			ID:         s.data.id(),
			CategoryID: categoryID,
			Name:       item.Name,
			Level:      item.Level,
			IconURL:    item.Icon,
			SortOrder:  item.SortOrder,
		}
		a.skills[sk.ID] = sk
		created = append(created, sk)
	}
	s.respondJSON(w, http.StatusCreated, "Skills created", created)
}

func (s *Server) handleUpdateSkills(w http.ResponseWriter, r *http.Request) {
	var req []models.UpdateSkillRequest
	if !s.decode(w, r, &req) || !s.validBatch(w, len(req)) {
		return
	}
	for _, item := range req {
		if !s.valid(w, item) {
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, categoryID, ok := s.category(w, r)
	if !ok {
		return
	}
	if !s.ownedSkills(w, a, categoryID, len(req), func(i int) int64 { return req[i].ID }) {
		return
	}

	updated := make([]models.Skill, 0, len(req))
	for _, item := range req {
		sk := a.skills[item.ID]
		sk.Name = item.Name
		sk.Level = item.Level
		sk.IconURL = item.Icon
		sk.SortOrder = item.SortOrder
		a.skills[sk.ID] = sk
		updated = append(updated, sk)
	}
	s.respondJSON(w, http.StatusOK, "Skills updated", updated)
}

func (s *Server) handleDeleteSkills(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if !s.decode(w, r, &ids) || !s.validBatch(w, len(ids)) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, categoryID, ok := s.category(w, r)
	if !ok {
		return
	}
	if !s.ownedSkills(w, a, categoryID, len(ids), func(i int) int64 { return ids[i] }) {
		return
	}

	for _, id := range ids {
		a.deleteSkill(id)
	}
	s.respondJSON(w, http.StatusOK, "Skills deleted", nil)
}

func (s *Server) validBatch(w http.ResponseWriter, n int) bool {
	if n == 0 {
		s.respondError(w, http.StatusBadRequest, "batch must contain at least one item")
		return false
	}
	return true
}

func (s *Server) ownedSkills(w http.ResponseWriter, a *account, categoryID int64, n int, id func(int) int64) bool {
	for i := 0; i < n; i++ {
		sk, exists := a.skills[id(i)]
		if !exists || sk.CategoryID != categoryID {
			s.respondError(w, http.StatusNotFound, "Skill not found in category")
			return false
		}
	}
	return true
}

// Public portfolio handlers

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.PortfolioSummary, 0, len(s.data.accounts))
	for _, a := range sorted(s.data.accounts) {
		out = append(out, a.summary())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	s.respondJSON(w, http.StatusOK, "", out)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.data.bySlug(chi.URLParam(r, "slug"))
	if a == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	s.respondJSON(w, http.StatusOK, "", a.detail())
}

func (s *Server) handleGetPortfolioProject(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.data.bySlug(chi.URLParam(r, "slug"))
	if a == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	projectSlug := chi.URLParam(r, "projectSlug")
	for _, p := range a.projects {
		if p.Slug == projectSlug {
			s.respondJSON(w, http.StatusOK, "", a.projectWithSkills(p))
			return
		}
	}
	s.respondError(w, http.StatusNotFound, "Project not found")
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if !s.decode(w, r, &req) || !s.valid(w, req) {
		return
	}

	slug := chi.URLParam(r, "slug")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.bySlug(slug) == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	s.messages = append(s.messages, ContactMessage{Slug: slug, Request: req, ReceivedAt: time.Now()})
	s.respondJSON(w, http.StatusOK, "Message sent", nil)
}
