package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ent0n29/aimaster/internal/catalog"
	"github.com/ent0n29/aimaster/internal/classroom"
	"github.com/ent0n29/aimaster/internal/config"
	"github.com/ent0n29/aimaster/internal/httpapi"
	"github.com/ent0n29/aimaster/internal/observability"
	"github.com/ent0n29/aimaster/internal/policy"
	"github.com/ent0n29/aimaster/internal/reliability"
	"github.com/ent0n29/aimaster/internal/session"
	"github.com/ent0n29/aimaster/internal/speech"
	"github.com/ent0n29/aimaster/internal/store"
)

const janitorInterval = 5 * time.Second

type BrainInfo struct {
	Provider string
	Detail   string
}

type BuildResult struct {
	Config      config.Config
	API         *httpapi.Server
	Sessions    *session.Registry
	Classroom   *classroom.Service
	Metrics     *observability.Metrics
	Brain       BrainInfo
	StoreDriver string

	// Cleanup releases the store connection.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	storeOpts := store.Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		RedisTTL:    cfg.RedisTTL,
		BoltPath:    cfg.StoreBoltPath,
	}
	kv, err := store.NewStore(ctx, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}
	driver := store.ResolveDriver(storeOpts)

	brain, err := resolveBrain(cfg)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	retry := reliability.Policy{
		MaxRetries: cfg.RetryMaxRetries,
		Delay:      cfg.RetryDelay,
		OnRetry: func(remaining int, err error) {
			metrics.QuotaRetries.Inc()
			log.Printf("session: quota hit, retrying in %s (%d retries left): %s", cfg.RetryDelay, remaining, policy.RedactError(err))
		},
	}
	sessions := session.NewRegistry(session.Config{
		Backend:     brain.backend,
		Retry:       retry,
		Model:       cfg.GeminiTextModel,
		Temperature: cfg.GeminiTemperature,
		OnFailure: func(kind reliability.FailureKind, err error) {
			metrics.BackendErrors.WithLabelValues(string(kind)).Inc()
		},
	}, cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ string) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	cat := catalog.Default()
	hub := speech.NewHub()
	svc := classroom.New(classroom.Config{
		Catalog:  cat,
		Learners: store.NewLearners(kv, cat.Teachers()),
		Sessions: sessions,
		Audio:    hub,
		Observer: metrics,
	})

	api := httpapi.New(cfg, httpapi.Deps{
		Classroom:   svc,
		Synthesizer: brain.synthesizer,
		Hub:         hub,
		Store:       kv,
		Metrics:     metrics,
	})

	return &BuildResult{
		Config:      cfg,
		API:         api,
		Sessions:    sessions,
		Classroom:   svc,
		Metrics:     metrics,
		Brain:       BrainInfo{Provider: brain.resolvedProvider, Detail: brain.detail},
		StoreDriver: driver,
		Cleanup:     kv.Close,
	}, nil
}

// Start runs the background loops until ctx is done.
func (b *BuildResult) Start(ctx context.Context) {
	b.Sessions.StartJanitor(ctx, janitorInterval)
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Metrics.ActiveSessions.Set(float64(b.Sessions.ActiveCount()))
			}
		}
	}()
}
