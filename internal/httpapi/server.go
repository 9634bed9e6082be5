package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/classroom"
	"github.com/ent0n29/aimaster/internal/config"
	"github.com/ent0n29/aimaster/internal/llm"
	"github.com/ent0n29/aimaster/internal/observability"
	"github.com/ent0n29/aimaster/internal/policy"
	"github.com/ent0n29/aimaster/internal/session"
	"github.com/ent0n29/aimaster/internal/speech"
	"github.com/ent0n29/aimaster/internal/store"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Classroom   *classroom.Service
	Synthesizer llm.Synthesizer
	Hub         *speech.Hub
	Store       Pinger
	Metrics     *observability.Metrics
}

type Server struct {
	cfg       config.Config
	classroom *classroom.Service
	synth     llm.Synthesizer
	hub       *speech.Hub
	store     Pinger
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, deps Deps) *Server {
	hub := deps.Hub
	if hub == nil {
		hub = speech.NewHub()
	}
	return &Server{
		cfg:       cfg,
		classroom: deps.Classroom,
		synth:     deps.Synthesizer,
		hub:       hub,
		store:     deps.Store,
		metrics:   deps.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may open a learner's socket.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Route("/v1/catalog", func(r chi.Router) {
		r.Get("/courses", s.handleListCourses)
		r.Get("/teachers", s.handleListTeachers)
		r.Get("/languages", s.handleListLanguages)
	})

	r.Post("/v1/speech/preview", s.handlePreviewSpeech)

	r.Post("/v1/learners", s.handleLogin)
	r.Route("/v1/learners/{id}", func(r chi.Router) {
		r.Use(s.requireLearner)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)
		r.Get("/progress", s.handleGetProgress)
		r.Get("/onboarding", s.handleGetOnboarding)
		r.Post("/onboarding", s.handleFinishOnboarding)

		r.Get("/teachers", s.handleGetTeachers)
		r.Put("/teachers", s.handlePutTeachers)
		r.Delete("/teachers", s.handleResetTeachers)
		r.Get("/theme", s.handleGetTheme)
		r.Put("/theme", s.handlePutTheme)
		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handlePutPreferences)

		r.Post("/courses/{courseID}/start", s.handleStartCourse)
		r.Post("/courses/{courseID}/restart", s.handleRestartCourse)
		r.Post("/courses/{courseID}/bookmarks/{turnID}", s.handleToggleBookmark)
		r.Get("/bookmarks", s.handleListBookmarks)
		r.Post("/messages", s.handleSendMessage)

		r.Get("/backup", s.handleExport)
		r.Post("/backup", s.handleImport)
		r.Get("/downloads", s.handleListDownloads)
		r.Get("/downloads/{downloadID}", s.handleGetDownload)

		r.Get("/ws", s.handleLearnerWS)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"brain":        s.brainProvider(),
		"store_driver": s.cfg.StoreDriver,
		"speech":       s.synth != nil,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", policy.RedactError(err))
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"brain":  s.brainProvider(),
	})
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	courses := s.classroom.Courses(catalog.ParseCategory(q.Get("category")), q.Get("q"))
	respondJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

func (s *Server) handleListTeachers(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"teachers": s.classroom.Catalog().Teachers()})
}

type languageInfo struct {
	ID               catalog.Language `json:"id"`
	Label            string           `json:"label"`
	RecognizerLocale string           `json:"recognizer_locale"`
}

func (s *Server) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	out := make([]languageInfo, 0, 2)
	for _, l := range []catalog.Language{catalog.LanguageEnglish, catalog.LanguageMalayalam} {
		out = append(out, languageInfo{ID: l, Label: l.Label(), RecognizerLocale: l.RecognizerLocale()})
	}
	respondJSON(w, http.StatusOK, map[string]any{"languages": out})
}

func (s *Server) brainProvider() string {
	if s.cfg.UseGemini() {
		return "gemini"
	}
	return "mock"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondServiceError maps domain errors onto status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, classroom.ErrLearnerAbsent), errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrCourseNotFound):
		respondError(w, http.StatusNotFound, "course_not_found", err.Error())
	case errors.Is(err, catalog.ErrTeacherNotFound):
		respondError(w, http.StatusNotFound, "teacher_not_found", err.Error())
	case errors.Is(err, classroom.ErrNoDownload):
		respondError(w, http.StatusNotFound, "download_not_found", err.Error())
	case errors.Is(err, classroom.ErrLocked):
		respondError(w, http.StatusForbidden, "locked", err.Error())
	case errors.Is(err, classroom.ErrNoCourse), errors.Is(err, session.ErrNoActiveSession):
		respondError(w, http.StatusConflict, "no_active_session", err.Error())
	case errors.Is(err, classroom.ErrNameRequired),
		errors.Is(err, classroom.ErrEmptyMessage),
		errors.Is(err, classroom.ErrInvalidImage),
		errors.Is(err, classroom.ErrUnknownTheme),
		errors.Is(err, store.ErrInvalidBackup):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		log.Printf("http: internal error: %s", policy.RedactError(err))
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func learnerID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
