package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatMessage        MessageType = "chat_message"
	TypeSpeak              MessageType = "speak"
	TypeStopAudio          MessageType = "stop_audio"
	TypeAssistantReply     MessageType = "assistant_reply"
	TypeAssistantAudio     MessageType = "assistant_audio"
	TypeAssistantAudioStop MessageType = "assistant_audio_stop"
	TypeTyping             MessageType = "typing"
	TypeErrorEvent         MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatMessage carries one learner turn; Image holds a data URL for picture turns.
type ChatMessage struct {
	Type  MessageType `json:"type"`
	Text  string      `json:"text,omitempty"`
	Image string      `json:"image,omitempty"`
}

type Speak struct {
	Type    MessageType `json:"type"`
	Text    string      `json:"text"`
	VoiceID string      `json:"voice_id,omitempty"`
}

type StopAudio struct {
	Type MessageType `json:"type"`
}

type AssistantReply struct {
	Type     MessageType `json:"type"`
	CourseID string      `json:"course_id"`
	TurnID   string      `json:"turn_id"`
	Text     string      `json:"text"`
	// Suggestions is always a list, never null, so chips render without guards.
	Suggestions []string `json:"suggestions"`
}

type AssistantAudio struct {
	Type        MessageType `json:"type"`
	PlaybackID  string      `json:"playback_id"`
	Format      string      `json:"format"`
	SampleRate  int         `json:"sample_rate"`
	DurationMS  int64       `json:"duration_ms"`
	AudioBase64 string      `json:"audio_base64"`
}

type AssistantAudioStop struct {
	Type       MessageType `json:"type"`
	PlaybackID string      `json:"playback_id"`
}

type Typing struct {
	Type   MessageType `json:"type"`
	Active bool        `json:"active"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" && msg.Image == "" {
			return nil, errors.New("invalid chat_message")
		}
		return msg, nil
	case TypeSpeak:
		var msg Speak
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid speak")
		}
		return msg, nil
	case TypeStopAudio:
		return StopAudio{Type: TypeStopAudio}, nil
	default:
		return nil, ErrUnsupportedType
	}
}
