package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/classroom"
	"github.com/ent0n29/aimaster/internal/conversation"
	"github.com/ent0n29/aimaster/internal/store"
)

// maxBackupBytes bounds imported backups; chat history with images is large.
const maxBackupBytes = 32 << 20

type loginRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	p, err := s.classroom.Login(r.Context(), req.Name, req.Mobile)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.sessionEvent("learner_created")
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.classroom.Profile(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req store.Profile
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	p, err := s.classroom.SaveProfile(r.Context(), learnerID(r), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.classroom.Progress(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"progress": p, "xp": p.XP(), "level": store.LevelForXP(p.XP())})
}

func (s *Server) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	visited, err := s.classroom.Visited(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"has_visited": visited})
}

func (s *Server) handleFinishOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := s.classroom.FinishOnboarding(r.Context(), learnerID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"has_visited": true})
}

func (s *Server) handleGetTeachers(w http.ResponseWriter, r *http.Request) {
	ts, err := s.classroom.Teachers(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"teachers": ts})
}

func (s *Server) handlePutTeachers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Teachers []catalog.Teacher `json:"teachers"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Teachers) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "teachers is required")
		return
	}
	if err := s.classroom.SaveTeachers(r.Context(), learnerID(r), req.Teachers); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"teachers": req.Teachers})
}

func (s *Server) handleResetTeachers(w http.ResponseWriter, r *http.Request) {
	ts, err := s.classroom.ResetTeachers(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"teachers": ts})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.classroom.Theme(r.Context(), learnerID(r))
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, http.StatusOK, map[string]any{"id": catalog.DefaultTheme})
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(theme)
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.classroom.SaveTheme(r.Context(), learnerID(r), raw); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, raw)
}

// requireLearner rejects requests for learners that never logged in.
func (s *Server) requireLearner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.classroom == nil {
			respondError(w, http.StatusNotImplemented, "unavailable", "classroom not configured")
			return
		}
		if _, err := s.classroom.Profile(r.Context(), learnerID(r)); err != nil {
			respondServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.classroom.Preferences(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

type preferencesRequest struct {
	Language  string `json:"language"`
	TeacherID string `json:"teacher_id"`
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id := learnerID(r)
	prefs, err := s.classroom.Preferences(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if t := strings.TrimSpace(req.TeacherID); t != "" && t != prefs.TeacherID {
		if prefs, err = s.classroom.SelectTeacher(r.Context(), id, t); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	if strings.TrimSpace(req.Language) != "" {
		if lang := catalog.ParseLanguage(req.Language); lang != prefs.Language {
			if prefs, err = s.classroom.SelectLanguage(r.Context(), id, lang); err != nil {
				respondServiceError(w, err)
				return
			}
		}
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleStartCourse(w http.ResponseWriter, r *http.Request) {
	view, err := s.classroom.StartCourse(r.Context(), learnerID(r), chi.URLParam(r, "courseID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.sessionEvent(startEvent(view.Resumed))
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleRestartCourse(w http.ResponseWriter, r *http.Request) {
	view, err := s.classroom.RestartCourse(r.Context(), learnerID(r), chi.URLParam(r, "courseID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.sessionEvent("restarted")
	respondJSON(w, http.StatusOK, view)
}

type messageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	id := learnerID(r)
	s.hub.StopAll(id)

	var (
		ex  classroom.Exchange
		err error
	)
	if req.Image != "" {
		ex, err = s.classroom.SendImage(r.Context(), id, req.Image)
	} else {
		ex, err = s.classroom.SendMessage(r.Context(), id, req.Text)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ex)
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	turn, err := s.classroom.ToggleBookmark(r.Context(), learnerID(r), chi.URLParam(r, "courseID"), chi.URLParam(r, "turnID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, turn)
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bs, err := s.classroom.Bookmarks(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if bs == nil {
		bs = []conversation.Turn{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"bookmarks": bs})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := s.classroom.Export(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="aimaster_backup.json"`)
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBackupBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	b, err := s.classroom.Import(r.Context(), learnerID(r), raw)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.sessionEvent("imported")
	respondJSON(w, http.StatusOK, map[string]any{"version": b.Version, "timestamp": b.Timestamp})
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	items, err := s.classroom.Downloads(r.Context(), learnerID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"downloads": items})
}

func (s *Server) handleGetDownload(w http.ResponseWriter, r *http.Request) {
	d, err := s.classroom.Download(r.Context(), learnerID(r), chi.URLParam(r, "downloadID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, d.Content)
}

func (s *Server) sessionEvent(event string) {
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues(event).Inc()
	}
}

func startEvent(resumed bool) string {
	if resumed {
		return "resumed"
	}
	return "created"
}
