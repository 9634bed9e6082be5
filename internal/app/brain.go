package app

import (
	"fmt"
	"log"

	"github.com/ent0n29/aimaster/internal/config"
	"github.com/ent0n29/aimaster/internal/gemini"
	"github.com/ent0n29/aimaster/internal/llm"
)

type brainSetup struct {
	backend          llm.Backend
	synthesizer      llm.Synthesizer
	resolvedProvider string
	detail           string
}

func resolveBrain(cfg config.Config) (brainSetup, error) {
	switch cfg.BrainProvider {
	case "gemini", "auto", "":
		if !cfg.UseGemini() {
			break
		}
		if cfg.GeminiAPIKey == "" {
			return brainSetup{}, fmt.Errorf("BRAIN_PROVIDER=gemini but GEMINI_API_KEY is not set")
		}
		c := gemini.NewClient(gemini.Config{APIKey: cfg.GeminiAPIKey, BaseURL: cfg.GeminiBaseURL})
		return brainSetup{
			backend:          c,
			synthesizer:      c,
			resolvedProvider: "gemini",
			detail:           fmt.Sprintf("gemini (%s, tts %s)", cfg.GeminiTextModel, cfg.GeminiTTSModel),
		}, nil
	case "mock":
	default:
		return brainSetup{}, fmt.Errorf("invalid BRAIN_PROVIDER: %q (expected auto|gemini|mock)", cfg.BrainProvider)
	}

	m := llm.NewMockBackend()
	detail := "mock"
	if cfg.BrainProvider != "mock" {
		detail = "mock (no GEMINI_API_KEY)"
		log.Printf("brain provider: falling back to mock replies, GEMINI_API_KEY is not set")
	}
	return brainSetup{backend: m, synthesizer: m, resolvedProvider: "mock", detail: detail}, nil
}
