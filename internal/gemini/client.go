package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ent0n29/aimaster/internal/llm"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com"
	DefaultTextModel = "gemini-2.5-flash"
	DefaultTTSModel  = "gemini-2.5-flash-preview-tts"
	DefaultVoice     = "Kore"
)

var ErrNoAudio = errors.New("no audio data received")

// Config controls client construction.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Gemini generateContent REST endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	Temperature        *float64      `json:"temperature,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Generate sends history plus the new message and returns the joined text parts.
func (c *Client) Generate(ctx context.Context, req llm.TextRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultTextModel
	}

	contents := make([]content, 0, len(req.History)+1)
	for _, h := range req.History {
		contents = append(contents, content{Role: wireRole(h.Role), Parts: []part{{Text: h.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: req.Message}}})

	body := generateRequest{Contents: contents}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.GenerationConfig = &generationConfig{Temperature: &t}
	}

	res, err := c.generate(ctx, model, body)
	if err != nil {
		return "", err
	}
	if len(res.Candidates) == 0 {
		return "", nil
	}
	var out strings.Builder
	for _, p := range res.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), nil
}

// Synthesize requests a single inline audio part for the text.
func (c *Client) Synthesize(ctx context.Context, req llm.SpeechRequest) (llm.AudioPayload, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultTTSModel
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = DefaultVoice
	}

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice}},
			},
		},
	}

	res, err := c.generate(ctx, model, body)
	if err != nil {
		return llm.AudioPayload{}, err
	}
	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return llm.AudioPayload{}, ErrNoAudio
	}
	inline := res.Candidates[0].Content.Parts[0].InlineData
	if inline == nil || inline.Data == "" {
		return llm.AudioPayload{}, ErrNoAudio
	}
	return llm.AudioPayload{MIMEType: inline.MIMEType, Data: inline.Data}, nil
}

func (c *Client) generate(ctx context.Context, model string, body generateRequest) (generateResponse, error) {
	if c.apiKey == "" {
		return generateResponse{}, fmt.Errorf("gemini api key missing")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return generateResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return generateResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return generateResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
		return generateResponse{}, newAPIError(res.StatusCode, raw)
	}

	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return generateResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func wireRole(r llm.Role) string {
	if r == llm.RoleAssistant {
		return "model"
	}
	return "user"
}
