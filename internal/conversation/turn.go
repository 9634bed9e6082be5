// Package conversation defines the persisted chat turn.
package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "ai"
)

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Turn is one message in a course conversation. Only Bookmarked changes after creation.
type Turn struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Author      Author    `json:"sender"`
	Timestamp   time.Time `json:"timestamp"`
	Status      Status    `json:"status,omitempty"`
	Kind        Kind      `json:"type,omitempty"`
	Attachment  string    `json:"attachment,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Bookmarked  bool      `json:"isBookmarked,omitempty"`
}

func NewUserTurn(text string, now time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    AuthorUser,
		Timestamp: now.UTC(),
		Status:    StatusSent,
		Kind:      KindText,
	}
}

// ImageTurnText is the visible caption of an uploaded image.
const ImageTurnText = "Sent an image"

func NewImageTurn(dataURL string, now time.Time) Turn {
	t := NewUserTurn(ImageTurnText, now)
	t.Kind = KindImage
	t.Attachment = dataURL
	return t
}

func NewAssistantTurn(text string, suggestions []string, now time.Time) Turn {
	return Turn{
		ID:          uuid.NewString(),
		Text:        text,
		Author:      AuthorAssistant,
		Timestamp:   now.UTC(),
		Status:      StatusRead,
		Kind:        KindText,
		Suggestions: append([]string(nil), suggestions...),
	}
}

// UnmarshalJSON also accepts millisecond epoch or clock-string timestamps and the "model" sender.
func (t *Turn) UnmarshalJSON(data []byte) error {
	type alias Turn
	var raw struct {
		alias
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Turn(raw.alias)
	if t.Author == "model" || t.Author == "assistant" {
		t.Author = AuthorAssistant
	}
	if t.Kind == "" {
		t.Kind = KindText
	}
	if len(raw.Timestamp) == 0 || string(raw.Timestamp) == "null" {
		return nil
	}
	var ms int64
	if err := json.Unmarshal(raw.Timestamp, &ms); err == nil {
		t.Timestamp = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Timestamp, &s); err != nil {
		return fmt.Errorf("turn %s timestamp: %w", t.ID, err)
	}
	// display-only clock strings ("10:45 AM") carry no date and are dropped
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Timestamp = ts.UTC()
	}
	return nil
}

// History maps course id to its ordered turns.
type History map[string][]Turn

// FindTurn returns the index of id in turns, or -1.
func FindTurn(turns []Turn, id string) int {
	for i := range turns {
		if turns[i].ID == id {
			return i
		}
	}
	return -1
}
