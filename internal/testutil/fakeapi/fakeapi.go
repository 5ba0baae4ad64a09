// Package fakeapi is an in-memory stand-in for the marketplace REST backend,
// used by adapter and CLI tests.
package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadBytes = 5 * 1024 * 1024

var allowedExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

// Upload records one accepted upload.
type Upload struct {
	OriginalName string
	ContentType  string
	Data         []byte
}

// Server is a chi-routed httptest server with inspectable state.
type Server struct {
	*httptest.Server

	Token    string
	Email    string
	Password string

	mu         sync.Mutex
	uploads    map[string]Upload
	order      []string
	deleted    []string
	requestIDs []string
	bikes      map[int]map[string]any
	nextBikeID int
	failUpload map[string]failure
	failDelete bool
	accounts   map[string]string
}

type failure struct {
	status  int
	message string
}

// New starts a server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Token:      "test-token",
		Email:      "rider@example.com",
		Password:   "hunter22",
		uploads:    map[string]Upload{},
		bikes:      map[int]map[string]any{},
		nextBikeID: 1,
		failUpload: map[string]failure{},
		accounts:   map[string]string{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordRequestID)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/signup", s.handleSignup)
	r.Get("/api/bikes", s.handleListBikes)
	r.Get("/api/bikes/{id}", s.handleGetBike)
	r.Get("/api/uploads/{filename}", s.handleServeUpload)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/api/uploads/image", s.handleUpload)
		r.Delete("/api/uploads/{filename}", s.handleDeleteUpload)
		r.Post("/api/bikes", s.handleCreateBike)
		r.Put("/api/bikes/{id}", s.handleUpdateBike)
		r.Delete("/api/bikes/{id}", s.handleDeleteBike)
	})
	return r
}

// FailUpload makes uploads of originalName answer with status and message.
func (s *Server) FailUpload(originalName string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpload[originalName] = failure{status: status, message: message}
}

// FailDeletes makes every delete answer 500.
func (s *Server) FailDeletes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete = true
}

// SeedBike stores a bike and returns its id.
func (s *Server) SeedBike(fields map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextBikeID
	s.nextBikeID++
	bike := map[string]any{"id": id, "is_active": false, "photos": []any{}}
	for k, v := range fields {
		bike[k] = v
	}
	s.bikes[id] = bike
	return id
}

// SeedUpload stores a file as if it had been uploaded and returns its url.
func (s *Server) SeedUpload(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[filename] = Upload{OriginalName: filename, ContentType: "image/jpeg"}
	s.order = append(s.order, filename)
	return "/api/uploads/" + filename
}

func (s *Server) Bike(id int) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bikes[id]
}

// Uploads returns accepted uploads in arrival order.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Upload, 0, len(s.order))
	for _, name := range s.order {
		if u, ok := s.uploads[name]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *Server) HasUpload(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.uploads[filename]
	return ok
}

func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			s.mu.Lock()
			s.requestIDs = append(s.requestIDs, id)
			s.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "Missing Authorization Header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	_ = json.NewDecoder(r.Body).Decode(&body)
	email := strings.ToLower(strings.TrimSpace(body.Email))

	s.mu.Lock()
	password, registered := s.accounts[email]
	s.mu.Unlock()
	if email == s.Email {
		password, registered = s.Password, true
	}
	if !registered || body.Password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token,
		"user":         map[string]any{"id": 1, "email": email},
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	_ = json.NewDecoder(r.Body).Decode(&body)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email and password are required"})
		return
	}

	s.mu.Lock()
	_, taken := s.accounts[email]
	if !taken && email != s.Email {
		s.accounts[email] = body.Password
	}
	id := len(s.accounts) + 1
	s.mu.Unlock()
	if taken || email == s.Email {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email already registered"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": s.Token,
		"user":         map[string]any{"id": id, "email": email},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file field"})
		return
	}
	defer f.Close()

	s.mu.Lock()
	fail, shouldFail := s.failUpload[hdr.Filename]
	s.mu.Unlock()
	if shouldFail {
		writeJSON(w, fail.status, map[string]any{"error": fail.message})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(hdr.Filename), "."))
	if !allowedExts[ext] {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Only jpg, jpeg, png, webp allowed"})
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if len(data) > maxUploadBytes {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "File too large (max 5MB)"})
		return
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
	s.mu.Lock()
	s.uploads[name] = Upload{OriginalName: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}
	s.order = append(s.order, name)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"url": "/api/uploads/" + name})
}

func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u, ok := s.uploads[chi.URLParam(r, "filename")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", u.ContentType)
	_, _ = w.Write(u.Data)
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filename)
	if s.failDelete {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Could not delete"})
		return
	}
	if _, ok := s.uploads[filename]; !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "not_found"})
		return
	}
	delete(s.uploads, filename)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "deleted"})
}

func (s *Server) handleListBikes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := r.URL.Query().Get("state")
	out := make([]map[string]any, 0, len(s.bikes))
	for id := s.nextBikeID - 1; id >= 1; id-- {
		b, ok := s.bikes[id]
		if !ok {
			continue
		}
		if state != "" && b["state"] != state {
			continue
		}
		out = append(out, b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) bikeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Bike not found"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetBike(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bikeID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	b, found := s.bikes[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Bike not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBike(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if title, _ := payload["title"].(string); title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "title is required"})
		return
	}
	if photos, _ := payload["photos"].([]any); len(photos) > 3 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "at most 3 photos"})
		return
	}
	id := s.SeedBike(payload)
	writeJSON(w, http.StatusCreated, s.Bike(id))
}

func (s *Server) handleUpdateBike(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bikeID(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.bikes[id]
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Bike not found"})
		return
	}
	for k, v := range payload {
		b[k] = v
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBike(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bikeID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.bikes[id]; !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Bike not found"})
		return
	}
	delete(s.bikes, id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
