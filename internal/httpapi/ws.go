package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/aimaster/internal/audio"
	"github.com/ent0n29/aimaster/internal/classroom"
	"github.com/ent0n29/aimaster/internal/observability"
	"github.com/ent0n29/aimaster/internal/policy"
	"github.com/ent0n29/aimaster/internal/protocol"
	"github.com/ent0n29/aimaster/internal/reliability"
	"github.com/ent0n29/aimaster/internal/speech"
)

var (
	errOutboundFull = errors.New("outbound queue full")
	errChatBacklog  = errors.New("previous messages are still being answered")
)

// chatBacklog bounds the chat messages waiting behind the one in flight.
const chatBacklog = 16

// wsConn queues server messages for the single writer goroutine and plays
// synthesized speech by shipping WAV frames to the browser.
type wsConn struct {
	ctx     context.Context
	out     chan any
	metrics *observability.Metrics
}

func (c *wsConn) enqueue(msg any) bool {
	select {
	case <-c.ctx.Done():
		return false
	case c.out <- msg:
		return true
	default:
		if t, ok := messageTypeOf(msg); ok && c.metrics != nil {
			c.metrics.WSMessages.WithLabelValues("dropped", string(t)).Inc()
		}
		return false
	}
}

func (c *wsConn) SendAudio(_ context.Context, playbackID string, buf *audio.Buffer) error {
	wav, err := audio.EncodeWAV(buf)
	if err != nil {
		return err
	}
	ok := c.enqueue(protocol.AssistantAudio{
		Type:        protocol.TypeAssistantAudio,
		PlaybackID:  playbackID,
		Format:      "wav",
		SampleRate:  buf.SampleRate,
		DurationMS:  buf.Duration().Milliseconds(),
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
	})
	if !ok {
		return errOutboundFull
	}
	return nil
}

func (c *wsConn) StopAudio(playbackID string) error {
	if !c.enqueue(protocol.AssistantAudioStop{Type: protocol.TypeAssistantAudioStop, PlaybackID: playbackID}) {
		return errOutboundFull
	}
	return nil
}

// sendError reports err to the browser. Upstream HTTP failures decide
// retryability by status; other errors use fallback.
func (c *wsConn) sendError(code, source string, fallback bool, err error) {
	c.enqueue(protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		Code:      code,
		Source:    source,
		Retryable: reliability.IsRetryable(err, fallback),
		Detail:    policy.RedactError(err),
	})
}

func (s *Server) handleLearnerWS(w http.ResponseWriter, r *http.Request) {
	id := learnerID(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.sessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	wc := &wsConn{ctx: ctx, out: make(chan any, 256), metrics: s.metrics}
	var controller *speech.Controller
	if s.synth != nil {
		controller = speech.NewController(speech.Config{
			Synthesizer:  s.synth,
			NewOutput:    func() (speech.Output, error) { return speech.NewClockedOutput(wc), nil },
			Model:        s.cfg.GeminiTTSModel,
			DefaultVoice: s.cfg.GeminiDefaultVoice,
			Observe:      s.observeSpeech,
		})
		unregister := s.hub.Register(id, controller)
		defer unregister()
		defer controller.StopAll()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-wc.out:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok && s.metrics != nil {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	chats := make(chan protocol.ChatMessage, chatBacklog)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range chats {
			s.handleChat(ctx, wc, id, msg)
		}
	}()

	conn.SetReadLimit(8 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			wc.sendError("invalid_client_message", "gateway", false, err)
			continue
		}
		if t, ok := messageTypeOf(parsed); ok && s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch msg := parsed.(type) {
		case protocol.ChatMessage:
			if ctx.Err() != nil {
				break readLoop
			}
			if !offerChat(chats, msg) {
				if s.metrics != nil {
					s.metrics.WSMessages.WithLabelValues("dropped", string(msg.Type)).Inc()
				}
				wc.sendError("chat_busy", "gateway", true, errChatBacklog)
			}
		case protocol.Speak:
			if controller == nil {
				wc.sendError("speech_unavailable", "speech", false, errors.New("speech synthesis is not configured"))
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleSpeak(ctx, wc, controller, id, msg)
			}()
		case protocol.StopAudio:
			if controller != nil {
				controller.StopAll()
			}
		}
	}

	cancel()
	close(chats)
	wg.Wait()
	<-writerDone
	s.sessionEvent("ws_disconnected")
}

func (s *Server) handleChat(ctx context.Context, wc *wsConn, id string, msg protocol.ChatMessage) {
	s.hub.StopAll(id)
	wc.enqueue(protocol.Typing{Type: protocol.TypeTyping, Active: true})
	defer wc.enqueue(protocol.Typing{Type: protocol.TypeTyping, Active: false})

	var (
		ex  classroom.Exchange
		err error
	)
	if msg.Image != "" {
		ex, err = s.classroom.SendImage(ctx, id, msg.Image)
	} else {
		ex, err = s.classroom.SendMessage(ctx, id, msg.Text)
	}
	if err != nil {
		log.Printf("ws: learner %s chat failed: %s", id, policy.RedactError(err))
		wc.sendError(chatErrorCode(err), "classroom", false, err)
		return
	}

	suggestions := ex.Reply.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	wc.enqueue(protocol.AssistantReply{
		Type:        protocol.TypeAssistantReply,
		CourseID:    ex.CourseID,
		TurnID:      ex.Reply.ID,
		Text:        ex.Reply.Text,
		Suggestions: suggestions,
	})
}

func (s *Server) handleSpeak(ctx context.Context, wc *wsConn, c *speech.Controller, id string, msg protocol.Speak) {
	voice := strings.TrimSpace(msg.VoiceID)
	if voice == "" {
		if t, err := s.classroom.CurrentTeacher(ctx, id); err == nil {
			voice = t.VoiceName
		}
	}
	if err := c.Speak(ctx, msg.Text, voice); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("ws: learner %s speech failed: %s", id, policy.RedactError(err))
		wc.sendError("speech_failed", "speech", true, err)
	}
}

func (s *Server) observeSpeech(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.SpeechOutcomes.WithLabelValues(outcome).Inc()
	if outcome == speech.OutcomePlayed {
		s.metrics.ObserveTurnStage(observability.StageSpeakToAudio, elapsed)
	}
}

// offerChat queues msg for the chat worker without stalling the read loop,
// so stop_audio is still seen while a backlog is being answered.
func offerChat(chats chan<- protocol.ChatMessage, msg protocol.ChatMessage) bool {
	select {
	case chats <- msg:
		return true
	default:
		return false
	}
}

func chatErrorCode(err error) string {
	switch {
	case errors.Is(err, classroom.ErrNoCourse):
		return "no_course"
	case errors.Is(err, classroom.ErrEmptyMessage), errors.Is(err, classroom.ErrInvalidImage):
		return "invalid_message"
	default:
		return "chat_failed"
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ChatMessage:
		return m.Type, true
	case protocol.Speak:
		return m.Type, true
	case protocol.StopAudio:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.AssistantAudio:
		return m.Type, true
	case protocol.AssistantAudioStop:
		return m.Type, true
	case protocol.Typing:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
