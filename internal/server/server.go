package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"scriptura/internal/ratelimit"
	"scriptura/internal/session"
	"scriptura/internal/topiccache"
	"scriptura/internal/util"
	"scriptura/pkg/canon"
	"scriptura/pkg/domain"
)

const defaultWindowSize = 5

// Config wires required dependencies for the HTTP server.
type Config struct {
	Topics         *topiccache.Cache
	Session        *session.Coordinator
	RefreshLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes HTTP endpoints for the content access layer.
type Server struct {
	topics         *topiccache.Cache
	session        *session.Coordinator
	refreshLimiter *ratelimit.FixedWindowLimiter
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		topics:         cfg.Topics,
		session:        cfg.Session,
		refreshLimiter: cfg.RefreshLimiter,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/books", s.handleBooks)
	s.mux.HandleFunc("/chapters/window", s.handleChapterWindow)
	s.mux.HandleFunc("/chapters/", s.handleChapterByIndex)
	s.mux.HandleFunc("/topics/", s.handleTopicsByCategory)
	s.mux.HandleFunc("/auth/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":         canon.Books,
		"count":         len(canon.Books),
		"chapterCount":  canon.MaxPageIndex(canon.Books) + 1,
		"maxPageIndex":  canon.MaxPageIndex(canon.Books),
	})
}

// /chapters/{index}
func (s *Server) handleChapterByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/chapters/")
	if raw == "" || strings.Contains(raw, "/") {
		notFound(w, "not found")
		return
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page index")
		return
	}
	wrapped := canon.WrapPageIndex(index, canon.Books)
	ref, ok := canon.ChapterFromPageIndex(wrapped, canon.Books)
	if !ok {
		notFound(w, "chapter not found")
		return
	}
	name := ""
	if b, ok := canon.BookByID(ref.BookID, canon.Books); ok {
		name = b.Name
	}
	writeJSON(w, http.StatusOK, canon.Slot{
		Index:    wrapped,
		BookID:   ref.BookID,
		Chapter:  ref.Chapter,
		BookName: name,
	})
}

// /chapters/window?book=&chapter=&size=
func (s *Server) handleChapterWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	bookID, err := strconv.Atoi(q.Get("book"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	chapter, err := strconv.Atoi(q.Get("chapter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chapter")
		return
	}
	size := defaultWindowSize
	if raw := q.Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeError(w, http.StatusBadRequest, "invalid window size")
			return
		}
	}
	slots := canon.Window(bookID, chapter, size, canon.Books)
	if slots == nil {
		notFound(w, "chapter not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slots": slots,
		"count": len(slots),
	})
}

// /topics/{category}
func (s *Server) handleTopicsByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.topics == nil {
		writeError(w, http.StatusInternalServerError, "topic cache not configured")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/topics/")
	if raw == "" || strings.Contains(raw, "/") {
		notFound(w, "not found")
		return
	}
	category, ok := domain.ParseCategory(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	result, err := s.topics.TopicsByCategory(r.Context(), category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.session == nil {
		writeError(w, http.StatusInternalServerError, "session coordinator not configured")
		return
	}
	if s.refreshLimiter != nil && !s.allowRate(w, r, s.refreshLimiter, "too many refresh attempts") {
		return
	}
	accessToken, err := s.session.RefreshAccessToken(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeForContent(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeForContent(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "topic cache not configured", message == "session coordinator not configured":
		return "SYSTEM_INTERNAL_ERROR"
	case message == "invalid page index":
		return "CANON_INVALID_PAGE_INDEX"
	case message == "invalid book id", message == "invalid chapter":
		return "CANON_INVALID_COORDINATE"
	case message == "invalid window size":
		return "CANON_INVALID_WINDOW_SIZE"
	case message == "chapter not found":
		return "CANON_CHAPTER_NOT_FOUND"
	case message == "invalid category":
		return "TOPIC_INVALID_CATEGORY"
	case message == "not authenticated":
		return "AUTH_NOT_AUTHENTICATED"
	case message == "refresh failed":
		return "AUTH_REFRESH_FAILED"
	case message == "too many refresh attempts":
		return "AUTH_RATE_LIMITED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_NOT_AUTHENTICATED"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "AUTH_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
