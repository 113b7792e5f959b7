package fakeapi

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20

// saveUpload stores the "file" form part and returns its public URL
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read file")
		return "", false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)

	s.mu.Lock()
	s.data.files[name] = storedFile{contentType: contentType, data: data}
	s.mu.Unlock()

	return "http://" + r.Host + "/files/" + name, true
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, ok := s.data.files[chi.URLParam(r, "name")]
	s.mu.Unlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	w.Write(f.data)
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	url, ok := s.saveUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	a.profile.AvatarURL = url
	s.respondJSON(w, http.StatusOK, "Avatar uploaded", a.profile)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	url, ok := s.saveUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	a.profile.ResumeURL = url
	s.respondJSON(w, http.StatusOK, "Resume uploaded", a.profile)
}

func (s *Server) handleUploadProjectCover(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	url, ok := s.saveUpload(w, r)
	if !ok {
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
	p.CoverImageURL = url
	a.projects[id] = p
	s.respondJSON(w, http.StatusOK, "Cover uploaded", a.projectWithSkills(p))
}

func (s *Server) handleUploadSkillIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	url, ok := s.saveUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	sk, exists := a.skills[id]
	if !exists {
		s.respondError(w, http.StatusNotFound, "Skill not found")
		return
	}
	sk.IconURL = &url
	a.skills[id] = sk
	s.respondJSON(w, http.StatusOK, "Icon uploaded", sk)
}

func (s *Server) handleUploadCertificateFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	url, ok := s.saveUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.account(w, r)
	if !ok {
		return
	}
	c, exists := a.certificates[id]
	if !exists {
		s.respondError(w, http.StatusNotFound, "Certificate not found")
		return
	}
	c.FileURL = url
	a.certificates[id] = c
	s.respondJSON(w, http.StatusOK, "File uploaded", c)
}
