package httpapi

import (
	"net/http"
	"strings"

	"github.com/ent0n29/aimaster/internal/audio"
	"github.com/ent0n29/aimaster/internal/llm"
	"github.com/ent0n29/aimaster/internal/policy"
	"github.com/ent0n29/aimaster/internal/speech"
)

const maxPreviewChars = 600

type previewSpeechRequest struct {
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	TeacherID string `json:"teacher_id"`
}

// handlePreviewSpeech synthesizes one phrase and returns it as a WAV file.
func (s *Server) handlePreviewSpeech(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		respondError(w, http.StatusNotImplemented, "speech_unavailable", "speech synthesis is not configured")
		return
	}
	var req previewSpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	text := speech.SpeakableText(req.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text has nothing to speak")
		return
	}
	if len([]rune(text)) > maxPreviewChars {
		text = string([]rune(text)[:maxPreviewChars])
	}

	voice := strings.TrimSpace(req.Voice)
	if voice == "" && strings.TrimSpace(req.TeacherID) != "" {
		t, err := s.classroom.Catalog().Teacher(req.TeacherID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		voice = t.VoiceName
	}
	if voice == "" {
		voice = s.cfg.GeminiDefaultVoice
	}

	payload, err := s.synth.Synthesize(r.Context(), llm.SpeechRequest{Model: s.cfg.GeminiTTSModel, Text: text, Voice: voice})
	if err != nil {
		respondError(w, http.StatusBadGateway, "tts_preview_failed", policy.RedactError(err))
		return
	}
	if err := audio.CheckPCMMIMEType(payload.MIMEType); err != nil {
		respondError(w, http.StatusBadGateway, "tts_preview_failed", policy.RedactError(err))
		return
	}
	buf, err := audio.DecodePCM16Base64(payload.Data, audio.PCMSampleRate(payload.MIMEType), 1)
	if err != nil {
		respondError(w, http.StatusBadGateway, "tts_preview_failed", policy.RedactError(err))
		return
	}
	wav, err := audio.EncodeWAV(buf)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "tts_preview_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	if payload.MIMEType != "" {
		w.Header().Set("X-Audio-Format", payload.MIMEType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}
