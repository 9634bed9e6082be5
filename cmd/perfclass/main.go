package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/aimaster/internal/protocol"
)

type options struct {
	baseURL        string
	name           string
	courseID       string
	language       string
	turns          int
	speak          bool
	startDelay     time.Duration
	interTurnDelay time.Duration
	turnTimeout    time.Duration
	texts          []string
	verbose        bool
}

type wsEnvelope struct {
	Type        string   `json:"type"`
	Code        string   `json:"code,omitempty"`
	Detail      string   `json:"detail,omitempty"`
	Text        string   `json:"text,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	PlaybackID  string   `json:"playback_id,omitempty"`
	AudioBase64 string   `json:"audio_base64,omitempty"`
}

type turnSample struct {
	reply time.Duration
	audio time.Duration
	clip  time.Duration
}

var defaultMessages = []string{
	"Explain it in one sentence.",
	"Give me one practical example.",
	"What should I try next?",
	"Summarize what we covered.",
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "perfclass: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "perfclass: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var textsRaw string
	var startDelayMS int
	var interTurnMS int
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "aimaster base URL")
	flag.StringVar(&cfg.name, "name", "perf-learner", "display name for the synthetic learner")
	flag.StringVar(&cfg.courseID, "course", "free-ai-tools", "course to open")
	flag.StringVar(&cfg.language, "language", "english", "output language (english|malayalam)")
	flag.IntVar(&cfg.turns, "turns", 6, "number of chat turns to replay")
	flag.BoolVar(&cfg.speak, "speak", true, "request speech for every reply")
	flag.IntVar(&startDelayMS, "start-delay-ms", 300, "delay before the first turn in milliseconds")
	flag.IntVar(&interTurnMS, "inter-turn-ms", 200, "delay between turns in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 30000, "timeout waiting for each reply in milliseconds")
	flag.StringVar(&textsRaw, "texts", "", "messages separated by '|' (optional)")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if strings.TrimSpace(cfg.courseID) == "" {
		return options{}, fmt.Errorf("course is required")
	}
	if startDelayMS < 0 {
		startDelayMS = 0
	}
	if interTurnMS < 0 {
		interTurnMS = 0
	}
	if turnTimeoutMS < 1000 {
		turnTimeoutMS = 1000
	}
	cfg.startDelay = time.Duration(startDelayMS) * time.Millisecond
	cfg.interTurnDelay = time.Duration(interTurnMS) * time.Millisecond
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	cfg.texts = splitTexts(textsRaw)
	if len(cfg.texts) == 0 {
		cfg.texts = append([]string(nil), defaultMessages...)
	}
	return cfg, nil
}

func splitTexts(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	defer cancel()

	httpClient := &http.Client{Timeout: 45 * time.Second}
	learnerID, err := login(ctx, httpClient, cfg)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := postJSON(ctx, httpClient, cfg.baseURL+"/v1/learners/"+url.PathEscape(learnerID)+"/preferences", http.MethodPut,
		map[string]string{"language": cfg.language}, nil); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	started := time.Now()
	if err := postJSON(ctx, httpClient, cfg.baseURL+"/v1/learners/"+url.PathEscape(learnerID)+"/courses/"+url.PathEscape(cfg.courseID)+"/start", http.MethodPost, nil, nil); err != nil {
		return fmt.Errorf("start course: %w", err)
	}
	if cfg.verbose {
		fmt.Printf("perfclass: learner=%s course=%s opened in %s\n", learnerID, cfg.courseID, time.Since(started).Round(time.Millisecond))
	}

	wsURL, err := wsURLForLearner(cfg.baseURL, learnerID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	if cfg.startDelay > 0 {
		time.Sleep(cfg.startDelay)
	}

	events := make(chan wsEnvelope, 64)
	readErrCh := make(chan error, 1)
	go readLoop(conn, events, readErrCh, cfg.verbose)

	samples := make([]turnSample, 0, cfg.turns)
	for i := 0; i < cfg.turns; i++ {
		text := cfg.texts[i%len(cfg.texts)]
		var sample turnSample

		sent := time.Now()
		if err := conn.WriteJSON(protocol.ChatMessage{Type: protocol.TypeChatMessage, Text: text}); err != nil {
			return fmt.Errorf("turn %d send: %w", i+1, err)
		}
		reply, err := await(events, readErrCh, protocol.TypeAssistantReply, cfg.turnTimeout)
		if err != nil {
			return fmt.Errorf("turn %d await assistant_reply: %w", i+1, err)
		}
		sample.reply = time.Since(sent)
		if cfg.verbose {
			fmt.Printf("perfclass: turn %d/%d reply in %s (%d chips)\n", i+1, cfg.turns, sample.reply.Round(time.Millisecond), len(reply.Suggestions))
		}

		if cfg.speak {
			spoke := time.Now()
			if err := conn.WriteJSON(protocol.Speak{Type: protocol.TypeSpeak, Text: reply.Text}); err != nil {
				return fmt.Errorf("turn %d speak: %w", i+1, err)
			}
			clip, err := await(events, readErrCh, protocol.TypeAssistantAudio, cfg.turnTimeout)
			if err != nil {
				return fmt.Errorf("turn %d await assistant_audio: %w", i+1, err)
			}
			sample.audio = time.Since(spoke)
			wav, err := base64.StdEncoding.DecodeString(clip.AudioBase64)
			if err != nil {
				return fmt.Errorf("turn %d decode audio: %w", i+1, err)
			}
			if sample.clip, err = wavDuration(wav); err != nil {
				return fmt.Errorf("turn %d decode wav: %w", i+1, err)
			}
			if err := conn.WriteJSON(protocol.StopAudio{Type: protocol.TypeStopAudio}); err != nil {
				return fmt.Errorf("turn %d stop audio: %w", i+1, err)
			}
		}
		samples = append(samples, sample)

		if cfg.interTurnDelay > 0 && i < cfg.turns-1 {
			time.Sleep(cfg.interTurnDelay)
		}
	}

	printSummary(os.Stdout, samples, cfg.speak)
	return nil
}

func login(ctx context.Context, client *http.Client, cfg options) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, client, cfg.baseURL+"/v1/learners", http.MethodPost, map[string]string{"name": cfg.name}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", fmt.Errorf("missing id in response")
	}
	return out.ID, nil
}

func postJSON(ctx context.Context, client *http.Client, target, method string, body, out any) error {
	var rd io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func wsURLForLearner(baseURL, learnerID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/learners/" + url.PathEscape(learnerID) + "/ws"
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, events chan<- wsEnvelope, readErrCh chan<- error, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch protocol.MessageType(env.Type) {
		case protocol.TypeAssistantReply, protocol.TypeAssistantAudio:
			select {
			case events <- env:
			default:
			}
		case protocol.TypeErrorEvent:
			if verbose {
				fmt.Fprintf(os.Stderr, "perfclass: error_event code=%s detail=%s\n", env.Code, env.Detail)
			}
		}
	}
}

func await(events <-chan wsEnvelope, readErrCh <-chan error, want protocol.MessageType, timeout time.Duration) (wsEnvelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case env := <-events:
			if protocol.MessageType(env.Type) == want {
				return env, nil
			}
		case err := <-readErrCh:
			return wsEnvelope{}, err
		case <-timer.C:
			return wsEnvelope{}, fmt.Errorf("timeout after %s", timeout)
		}
	}
}

// wavDuration reads the fmt and data chunks of a PCM16 WAV stream.
func wavDuration(data []byte) (time.Duration, error) {
	if len(data) < 12 {
		return 0, fmt.Errorf("wav too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, fmt.Errorf("unsupported wav header")
	}

	var (
		haveFmt     bool
		channels    int
		sampleRate  int
		bitsPerSamp int
		dataBytes   = -1
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if size < 0 || off+size > len(data) {
			return 0, fmt.Errorf("invalid wav chunk size")
		}
		chunk := data[off : off+size]
		switch id {
		case "fmt ":
			if len(chunk) < 16 {
				return 0, fmt.Errorf("invalid wav fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(chunk[0:2]); format != 1 {
				return 0, fmt.Errorf("unsupported wav audio format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			bitsPerSamp = int(binary.LittleEndian.Uint16(chunk[14:16]))
			haveFmt = true
		case "data":
			dataBytes = size
		}
		off += size
		if size%2 == 1 {
			off++
		}
	}
	if !haveFmt {
		return 0, fmt.Errorf("wav fmt chunk missing")
	}
	if dataBytes < 0 {
		return 0, fmt.Errorf("wav data chunk missing")
	}
	if bitsPerSamp != 16 || channels <= 0 || sampleRate <= 0 {
		return 0, fmt.Errorf("unsupported wav layout: %d bits, %d channels, %d Hz", bitsPerSamp, channels, sampleRate)
	}
	frames := dataBytes / (2 * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate), nil
}

func printSummary(w io.Writer, samples []turnSample, speak bool) {
	replies := make([]time.Duration, 0, len(samples))
	audio := make([]time.Duration, 0, len(samples))
	var spoken time.Duration
	for _, s := range samples {
		replies = append(replies, s.reply)
		if speak {
			audio = append(audio, s.audio)
			spoken += s.clip
		}
	}
	fmt.Fprintf(w, "perfclass: %d turns\n", len(samples))
	fmt.Fprintf(w, "  send_to_reply   p50=%s p95=%s\n", percentile(replies, 0.50), percentile(replies, 0.95))
	if speak {
		fmt.Fprintf(w, "  speak_to_audio  p50=%s p95=%s (spoken %s)\n", percentile(audio, 0.50), percentile(audio, 0.95), spoken.Round(time.Millisecond))
	}
}

func percentile(values []time.Duration, q float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(q*float64(len(sorted)-1) + 0.5)
	return sorted[idx].Round(time.Millisecond)
}
