package llm

import "context"

// Role labels a prior turn for the backend.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content is one role-tagged history entry.
type Content struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// TextRequest is a single chat turn: the instruction and history seed the
// context, Message is the new user input.
type TextRequest struct {
	Model             string
	SystemInstruction string
	History           []Content
	Message           string
	Temperature       float64
}

// SpeechRequest asks for one spoken rendition of Text.
type SpeechRequest struct {
	Model string
	Text  string
	Voice string
}

// AudioPayload is inline audio as returned by the backend.
type AudioPayload struct {
	MIMEType string
	Data     string
}

// Backend produces assistant text for a chat turn.
type Backend interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

// Synthesizer produces speech audio for text.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (AudioPayload, error)
}
