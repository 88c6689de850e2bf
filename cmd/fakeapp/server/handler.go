package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jobtracker/e2e/internal/jobs"
)

const sessionCookie = "sb-session"

type ctxKey struct{}

func userFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	return s.accounts.userFor(c.Value)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != s.cfg.AnonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Pages
// =============================================================================

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	writeHTML(w, appPage(s.cfg.Instrument))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, LoginPage)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, SignupPage)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, token, err := s.accounts.signIn(c.Email, c.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}
	s.setSession(w, token)
	s.log.Info("user signed in", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": u.ID, "email": u.Email}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || len(c.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Email and a password of at least 6 characters are required")
		return
	}
	if _, err := s.accounts.signUp(c.Email, c.Password); err != nil {
		writeError(w, http.StatusConflict, "User already registered")
		return
	}
	u, token, err := s.accounts.signIn(c.Email, c.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	s.setSession(w, token)
	writeJSON(w, http.StatusCreated, map[string]any{"user": map[string]string{"id": u.ID, "email": u.Email}})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.accounts.revoke(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// =============================================================================
// App API
// =============================================================================

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.Filter{Query: q.Get("q")}
	if st := q.Get("status"); st != "" && st != "all" {
		status, err := jobs.ParseStatus(st)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	order, err := jobs.ParseSortBy(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.store.List(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.log.Error("Error fetching jobs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs.Apply(list, filter, order)})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in jobs.Insert
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.URL = strings.TrimSpace(in.URL)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Job URL and company name are required")
		return
	}

	job, err := s.store.Create(r.Context(), userFromContext(r.Context()), in)
	switch {
	case errors.Is(err, ErrDuplicateURL):
		writeError(w, http.StatusConflict, "You already added a job with this URL")
		return
	case err != nil:
		s.log.Error("Error creating job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"job": job})
}

type updateRequest struct {
	ID string `json:"id"`
	jobs.Update
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}
	if req.CompanyName != nil && strings.TrimSpace(*req.CompanyName) == "" {
		writeError(w, http.StatusBadRequest, "Company name cannot be empty")
		return
	}

	job, err := s.store.Update(r.Context(), userFromContext(r.Context()), req.ID, req.Update)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
		return
	case errors.Is(err, ErrDuplicateURL):
		writeError(w, http.StatusConflict, "You already added a job with this URL")
		return
	case err != nil:
		s.log.Error("Error updating job", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Failed to update job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}
	err := s.store.Delete(r.Context(), userFromContext(r.Context()), id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
		return
	case err != nil:
		s.log.Error("Error deleting job", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context(), userFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := jobs.RenderHTML(&buf, list, now); err != nil {
		s.log.Error("Error rendering export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export jobs")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+jobs.ExportFilename(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// =============================================================================
// Backend REST API
// =============================================================================

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "only grant_type=password is supported",
		})
		return
	}
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	u, token, err := s.accounts.signIn(c.Email, c.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   3600,
		"user":         map[string]string{"id": u.ID, "email": u.Email},
	})
}

// handleRESTDelete implements DELETE /rest/v1/jobs?user_id=eq.{id}. Only the
// user_id equality filter is accepted, and only for the token's own user.
func (s *Server) handleRESTDelete(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	caller, ok := s.accounts.userFor(token)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "JWT invalid"})
		return
	}

	filter := r.URL.Query().Get("user_id")
	if !strings.HasPrefix(filter, "eq.") || strings.TrimPrefix(filter, "eq.") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "DELETE requires a user_id=eq. filter"})
		return
	}
	target := strings.TrimPrefix(filter, "eq.")
	if target != caller {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "permission denied for rows of another user"})
		return
	}

	deleted, err := s.store.DeleteAllForUser(r.Context(), target)
	if err != nil {
		s.log.Error("Error deleting jobs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "delete failed"})
		return
	}
	s.log.Info("rest delete", zap.String("user_id", target), zap.Int("deleted", len(deleted)))

	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, http.StatusOK, deleted)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
