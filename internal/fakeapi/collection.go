package fakeapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
)

type identified interface {
	ResourceID() int64
}

// statusError lets collection callbacks pick the response status
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

func badRequest(message string) error {
	return &statusError{status: http.StatusBadRequest, message: message}
}

// collection describes one id-addressed "my data" resource.
// All callbacks run with s.mu held.
type collection[T any, C any, U identified] struct {
	name    string
	rows    func(a *account) map[int64]T
	create  func(a *account, id int64, in C) (T, error)
	update  func(a *account, current T, in U) (T, error)
	present func(a *account, row T) T
	remove  func(a *account, id int64)
}

// mount registers list/get/create/update/delete under path
func mount[T any, C any, U identified](s *Server, r chi.Router, path string, c collection[T, C, U]) {
	show := func(a *account, row T) T {
		if c.present != nil {
			return c.present(a, row)
		}
		return row
	}

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.account(w, r)
		if !ok {
			return
		}
		rows := sorted(c.rows(a))
		for i := range rows {
			rows[i] = show(a, rows[i])
		}
		s.respondJSON(w, http.StatusOK, "", rows)
	})

	r.Get(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.account(w, r)
		if !ok {
			return
		}
		row, exists := c.rows(a)[id]
		if !exists {
			s.respondError(w, http.StatusNotFound, c.name+" not found")
			return
		}
		s.respondJSON(w, http.StatusOK, "", show(a, row))
	})

	r.Post(path, func(w http.ResponseWriter, r *http.Request) {
		var in C
		if !s.decode(w, r, &in) || !s.valid(w, in) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.account(w, r)
		if !ok {
			return
		}
		row, err := c.create(a, s.data.id(), in)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, c.name+" created", show(a, row))
	})

	r.Put(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		var in U
		if !s.decode(w, r, &in) || !s.valid(w, in) {
			return
		}
		if in.ResourceID() != id {
			s.respondError(w, http.StatusBadRequest, "id in body does not match path")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.account(w, r)
		if !ok {
			return
		}
		current, exists := c.rows(a)[id]
		if !exists {
			s.respondError(w, http.StatusNotFound, c.name+" not found")
			return
		}
		row, err := c.update(a, current, in)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		c.rows(a)[id] = row
		s.respondJSON(w, http.StatusOK, c.name+" updated", show(a, row))
	})

	r.Delete(path+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		a, ok := s.account(w, r)
		if !ok {
			return
		}
		rows := c.rows(a)
		if _, exists := rows[id]; !exists {
			s.respondError(w, http.StatusNotFound, c.name+" not found")
			return
		}
		delete(rows, id)
		if c.remove != nil {
			c.remove(a, id)
		}
		s.respondJSON(w, http.StatusOK, c.name+" deleted", nil)
	})
}

func (s *Server) valid(w http.ResponseWriter, v any) bool {
	if err := validation.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var se *statusError
	if errors.As(err, &se) {
		s.respondError(w, se.status, se.message)
		return
	}
	s.logger.Error("handler failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, "internal server error")
}

var projectCollection = collection[models.Project, models.CreateProjectRequest, models.UpdateProjectRequest]{
	name: "Project",
	rows: func(a *account) map[int64]models.Project { return a.projects },
	create: func(a *account, id int64, in models.CreateProjectRequest) (models.Project, error) {
		p := applyProject(models.Project{ID: id, Slug: a.uniqueProjectSlug(in.Title)}, in)
		a.projects[id] = p
		return p, nil
	},
	update: func(a *account, current models.Project, in models.UpdateProjectRequest) (models.Project, error) {
		return applyProject(current, in.CreateProjectRequest), nil
	},
	present: func(a *account, p models.Project) models.Project { return a.projectWithSkills(p) },
	remove:  func(a *account, id int64) { delete(a.projectSkills, id) },
}

// applyProject copies writable fields; slug, cover and skills are kept
func applyProject(p models.Project, in models.CreateProjectRequest) models.Project {
	p.Title = in.Title
	p.Summary = in.Summary
	p.Description = in.Description
	p.RepoURL = in.RepoURL
	p.LiveURL = in.LiveURL
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Featured = in.Featured
	p.SortOrder = in.SortOrder
	return p
}

var experienceCollection = collection[models.Experience, models.CreateExperienceRequest, models.UpdateExperienceRequest]{
	name: "Experience",
	rows: func(a *account) map[int64]models.Experience { return a.experience },
	create: func(a *account, id int64, in models.CreateExperienceRequest) (models.Experience, error) {
		e := applyExperience(models.Experience{ID: id}, in)
		a.experience[id] = e
		return e, nil
	},
	update: func(a *account, current models.Experience, in models.UpdateExperienceRequest) (models.Experience, error) {
		return applyExperience(current, in.CreateExperienceRequest), nil
	},
}

func applyExperience(e models.Experience, in models.CreateExperienceRequest) models.Experience {
	e.Company = in.Company
	e.Position = in.Position
	e.Location = in.Location
	e.Description = in.Description
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.Current = in.Current
	e.SortOrder = in.SortOrder
	return e
}

var educationCollection = collection[models.Education, models.CreateEducationRequest, models.UpdateEducationRequest]{
	name: "Education",
	rows: func(a *account) map[int64]models.Education { return a.education },
	create: func(a *account, id int64, in models.CreateEducationRequest) (models.Education, error) {
		e := applyEducation(models.Education{ID: id}, in)
		a.education[id] = e
		return e, nil
	},
	update: func(a *account, current models.Education, in models.UpdateEducationRequest) (models.Education, error) {
		return applyEducation(current, in.CreateEducationRequest), nil
	},
	// Certificates only reference education; they survive its deletion
	remove: func(a *account, id int64) {
		for cid, c := range a.certificates {
			if c.EducationID != nil && *c.EducationID == id {
				c.EducationID = nil
				a.certificates[cid] = c
			}
		}
	},
}

func applyEducation(e models.Education, in models.CreateEducationRequest) models.Education {
	e.Institution = in.Institution
	e.Degree = in.Degree
	e.FieldOfStudy = in.FieldOfStudy
	e.Grade = in.Grade
	e.Description = in.Description
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.Current = in.Current
	e.SortOrder = in.SortOrder
	return e
}

var certificateCollection = collection[models.Certificate, models.CreateCertificateRequest, models.UpdateCertificateRequest]{
	name: "Certificate",
	rows: func(a *account) map[int64]models.Certificate { return a.certificates },
	create: func(a *account, id int64, in models.CreateCertificateRequest) (models.Certificate, error) {
		c, err := applyCertificate(a, models.Certificate{ID: id}, in)
		if err != nil {
			return c, err
		}
		a.certificates[id] = c
		return c, nil
	},
	update: func(a *account, current models.Certificate, in models.UpdateCertificateRequest) (models.Certificate, error) {
		return applyCertificate(a, current, in.CreateCertificateRequest)
	},
}

func applyCertificate(a *account, c models.Certificate, in models.CreateCertificateRequest) (models.Certificate, error) {
	if in.EducationID != nil {
		if _, exists := a.education[*in.EducationID]; !exists {
			return c, badRequest("educationId does not reference an existing education entry")
		}
	}
	c.Name = in.Name
	c.Issuer = in.Issuer
	c.Description = in.Description
	c.IssueDate = in.IssueDate
	c.CredentialURL = in.CredentialURL
	c.EducationID = in.EducationID
	return c, nil
}

var socialLinkCollection = collection[models.SocialLink, models.CreateSocialLinkRequest, models.UpdateSocialLinkRequest]{
	name: "Social link",
	rows: func(a *account) map[int64]models.SocialLink { return a.socialLinks },
	create: func(a *account, id int64, in models.CreateSocialLinkRequest) (models.SocialLink, error) {
		l := models.SocialLink{ID: id, Platform: in.Platform, URL: in.URL, SortOrder: in.SortOrder}
		a.socialLinks[id] = l
		return l, nil
	},
	update: func(a *account, current models.SocialLink, in models.UpdateSocialLinkRequest) (models.SocialLink, error) {
		current.Platform = in.Platform
		current.URL = in.URL
		current.SortOrder = in.SortOrder
		return current, nil
	},
}

var categoryCollection = collection[models.SkillCategory, models.CreateSkillCategoryRequest, models.UpdateSkillCategoryRequest]{
	name: "Skill category",
	rows: func(a *account) map[int64]models.SkillCategory { return a.categories },
	create: func(a *account, id int64, in models.CreateSkillCategoryRequest) (models.SkillCategory, error) {
		c := models.SkillCategory{ID: id, Name: in.Name, SortOrder: in.SortOrder}
		a.categories[id] = c
		return c, nil
	},
	update: func(a *account, current models.SkillCategory, in models.UpdateSkillCategoryRequest) (models.SkillCategory, error) {
		current.Name = in.Name
		current.SortOrder = in.SortOrder
		return current, nil
	},
	present: func(a *account, c models.SkillCategory) models.SkillCategory { return a.categoryWithSkills(c) },
	remove: func(a *account, id int64) {
		for sid, sk := range a.skills {
			if sk.CategoryID == id {
				a.deleteSkill(sid)
			}
		}
	},
}
