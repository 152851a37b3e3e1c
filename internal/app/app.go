// Package app wires configuration, capture, transcription and delivery into
// the running dictation service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.vtype.dev/vtype/audiocapture"
	"go.vtype.dev/vtype/cache"
	"go.vtype.dev/vtype/config"
	"go.vtype.dev/vtype/diaglog"
	"go.vtype.dev/vtype/hotkey"
	"go.vtype.dev/vtype/paste"
	"go.vtype.dev/vtype/permission"
	"go.vtype.dev/vtype/session"
	"go.vtype.dev/vtype/transcribe"
)

// Service owns the long-lived components of the dictation process.
type Service struct {
	cfg        *config.Config
	diag       *diaglog.Logger
	store      *cache.Cache
	probe      *permission.Probe
	pipeline   *audiocapture.Pipeline
	engine     transcribe.Engine
	controller *session.Controller
	listener   *hotkey.Listener
}

// New creates an unstarted service.
func New() *Service {
	return &Service{}
}

// Run starts the service and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config, using defaults", "error", err)
		cfg = config.Default()
	}
	s.cfg = cfg

	diag, err := diaglog.New(cfg.DiagLogPath)
	if err != nil {
		return fmt.Errorf("open diagnostics: %w", err)
	}
	s.diag = diag
	defer s.shutdown()

	device := audiocapture.PortAudioDevice{}

	// Advisory only: capture attempts still proceed and report their own
	// failures.
	s.probe = permission.NewProbe(device, audiocapture.TargetSampleRate)
	state := s.probe.Run()
	diag.Logf("startup microphone permission: %s", state)

	s.pipeline = audiocapture.New(audiocapture.Config{Device: device})

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	s.engine = engine
	slog.Info("transcription engine ready", "engine", engine.Name())

	s.setupCache()

	s.controller = session.New(session.Config{
		Pipeline:    s.pipeline,
		Transcriber: engine,
		Paster:      paste.New(),
		Diagnostics: diag,
		Probe:       s.probe,
		Cache:       s.transcriptCache(),
		MinDuration: msOrZero(cfg.MinDurationMs),
		StopGrace:   msOrZero(cfg.StopGraceMs),
		TrimSilence: cfg.TrimSilence,
		OnStatus: func(st session.Status) {
			slog.Debug("session status", "status", st)
		},
	})

	debouncer := hotkey.NewDebouncer(msOrZero(cfg.DebounceMs), s.controller.Toggle, engine.Warm)
	s.listener = hotkey.NewListener(cfg.Hotkey, debouncer)
	if err := s.listener.Start(); err != nil {
		return fmt.Errorf("start hotkey listener: %w", err)
	}

	slog.Info("ready", "hotkey", cfg.Hotkey, "engine", engine.Name())
	<-ctx.Done()
	return nil
}

func (s *Service) shutdown() {
	if s.listener != nil {
		s.listener.Stop()
	}
	if s.controller != nil {
		s.controller.Shutdown()
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			slog.Error("close engine", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
	if s.diag != nil {
		_ = s.diag.Close()
	}
}

func (s *Service) setupCache() {
	if s.cfg.CacheDisabled {
		return
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		slog.Error("get config dir for cache", "error", err)
		return
	}
	cachePath := filepath.Join(configDir, "vtype", "cache")
	store, err := cache.New(cachePath)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.store = store
	slog.Info("transcript cache initialized", "path", cachePath)
}

// transcriptCache adapts the badger store to the controller's boundary, or
// returns nil when the cache is disabled or failed to open.
func (s *Service) transcriptCache() session.TranscriptCache {
	if s.store == nil {
		return nil
	}
	return &transcriptCache{store: s.store, engine: s.engine.Name()}
}

type transcriptCache struct {
	store  *cache.Cache
	engine string
}

func (t *transcriptCache) Lookup(wavBytes []byte) (string, bool) {
	entry, ok := t.store.Get(cache.Key(wavBytes))
	if !ok {
		return "", false
	}
	return entry.Text, true
}

func (t *transcriptCache) Store(wavBytes []byte, text string) {
	entry := &cache.Entry{Text: text, Engine: t.engine, CreatedAt: time.Now()}
	if err := t.store.Set(cache.Key(wavBytes), entry, cache.DefaultTTL); err != nil {
		slog.Warn("cache transcript", "error", err)
	}
}

func buildEngine(cfg *config.Config) (transcribe.Engine, error) {
	switch cfg.Engine {
	case "", "worker":
		return transcribe.NewWorker(cfg.WorkerScript), nil
	case "whisper-api":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("whisper-api engine requires api_key in config")
		}
		return transcribe.NewWhisperAPI(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

func msOrZero(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
