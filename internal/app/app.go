// Package app wires the push-to-talk trigger, audio capture, transcription
// providers, and text injection into the dictation loop. This struct
// focuses on orchestration; business logic lives in the sub-packages.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxkey/voxkey/audiocapture"
	"github.com/voxkey/voxkey/config"
	"github.com/voxkey/voxkey/dictation"
	"github.com/voxkey/voxkey/history"
	"github.com/voxkey/voxkey/hotkey"
	"github.com/voxkey/voxkey/inject"
	"github.com/voxkey/voxkey/langdetect"
	"github.com/voxkey/voxkey/notify"
	"github.com/voxkey/voxkey/transcribe"
)

// finishTimeout bounds the final transcription after key release.
const finishTimeout = 60 * time.Second

// State tracks where the app is in the push-to-talk cycle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinishing
)

// App owns all long-lived components and runs the dictation loop.
type App struct {
	cfg      *config.Config
	registry *transcribe.Registry
	capture  *audiocapture.Capture
	injector *inject.Injector // nil when running clipboard-only
	hist     *history.Store   // nil when history is disabled
	notifier *notify.Notifier
	listener *hotkey.Listener

	ctx context.Context

	mu           sync.Mutex
	state        State
	session      *dictation.Session
	sessionStart time.Time
	langHint     string
}

// New builds the app from configuration. Call Close when done.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: transcribe.NewRegistry(),
		notifier: notify.New(cfg.Notifications),
	}

	if err := a.setupProvider(); err != nil {
		return nil, err
	}

	capture, err := audiocapture.New(audiocapture.Config{DumpDir: cfg.DumpDir})
	if err != nil {
		a.registry.Close()
		return nil, fmt.Errorf("init audio capture: %w", err)
	}
	a.capture = capture

	a.setupInjector()
	a.setupHistory()

	listener, err := hotkey.New(cfg.TriggerKey, a.onTriggerDown, a.onTriggerUp)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.listener = listener

	return a, nil
}

func (a *App) setupProvider() error {
	switch a.cfg.Provider {
	case "whisper-native":
		p, err := transcribe.NewWhisperNative(a.cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("init native provider: %w", err)
		}
		a.registry.Register(p)
	case "whisper-api":
		a.registry.Register(transcribe.NewWhisperAPI(transcribe.WhisperAPIConfig{
			APIKey:  a.cfg.APIKey,
			BaseURL: a.cfg.BaseURL,
			Model:   a.cfg.Model,
		}))
	default:
		return fmt.Errorf("unknown provider: %s", a.cfg.Provider)
	}
	return nil
}

// setupInjector creates the keystroke injector unless the config asks for
// clipboard-only delivery. An injector that fails to initialize (no
// uinput access, no accessibility permission) downgrades to clipboard-only
// instead of aborting startup.
func (a *App) setupInjector() {
	if a.cfg.ClipboardOnly {
		slog.Info("clipboard-only mode, injection disabled")
		return
	}

	inj, err := inject.New(inject.Options{
		CharDelay:        time.Duration(a.cfg.CharDelayMs) * time.Millisecond,
		PasteSettle:      time.Duration(a.cfg.PasteSettleMs) * time.Millisecond,
		ClipboardRestore: time.Duration(a.cfg.ClipboardRestoreMs) * time.Millisecond,
	})
	if err != nil {
		slog.Warn("injection unavailable, falling back to clipboard", "error", err)
		return
	}
	a.injector = inj
}

func (a *App) setupHistory() {
	if !a.cfg.HistoryEnabled {
		return
	}
	dir, err := a.cfg.HistoryPath()
	if err != nil {
		slog.Error("resolve history dir", "error", err)
		return
	}
	store, err := history.Open(dir)
	if err != nil {
		slog.Error("open history store", "error", err)
		return
	}
	a.hist = store
	slog.Info("history store opened", "path", dir)
}

// Run blocks on the hotkey listener until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	return a.listener.Run(ctx)
}

// State returns the current push-to-talk state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) onTriggerDown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateIdle {
		slog.Debug("trigger pressed while busy", "state", a.state)
		return
	}

	provider := a.registry.Get(a.cfg.Provider)
	if provider == nil || !provider.IsReady() {
		slog.Error("transcription provider not ready", "provider", a.cfg.Provider)
		a.notifier.Error("transcription provider not ready")
		return
	}

	session := dictation.NewSession(a.capture, provider, a.output(), a.sessionOptions())
	if err := session.Start(a.ctx); err != nil {
		slog.Error("start session", "error", err)
		a.notifier.Error(err.Error())
		return
	}

	a.session = session
	a.sessionStart = time.Now()
	a.state = StateRecording
	slog.Info("recording started")
}

func (a *App) onTriggerUp() {
	a.mu.Lock()
	if a.state != StateRecording {
		a.mu.Unlock()
		return
	}
	session := a.session
	started := a.sessionStart
	a.state = StateFinishing
	a.mu.Unlock()

	// Finalization does a full model pass; keep the event loop free.
	go a.finishSession(session, time.Since(started))
}

func (a *App) finishSession(session *dictation.Session, recorded time.Duration) {
	defer func() {
		a.mu.Lock()
		a.session = nil
		a.state = StateIdle
		a.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	final, err := session.Finish(ctx)
	switch {
	case errors.Is(err, dictation.ErrNoSpeech):
		slog.Info("recording discarded", "recorded", recorded)
		a.notifier.Discarded()
		return
	case err != nil:
		slog.Error("finish session", "error", err)
		a.notifier.Error(err.Error())
		return
	}
	if final == "" {
		return
	}

	if a.injector == nil {
		if err := inject.Copy(final); err != nil {
			slog.Error("copy transcript", "error", err)
			a.notifier.Error(err.Error())
		} else {
			a.notifier.CopiedToClipboard()
		}
	}

	lang := a.cfg.Language
	if a.cfg.Language == "auto" {
		if code, ok := langdetect.Detect(final); ok {
			lang = code
			a.mu.Lock()
			a.langHint = code
			a.mu.Unlock()
			slog.Debug("language hint updated", "language", code)
		}
	}

	if a.hist != nil {
		if _, err := a.hist.Append(final, lang, recorded); err != nil {
			slog.Error("append history", "error", err)
		}
	}

	slog.Info("dictation finished", "recorded", recorded, "chars", len(final))
}

// output returns the session's text sink, nil in clipboard-only mode.
func (a *App) output() dictation.TextOutput {
	if a.injector == nil {
		return nil
	}
	return a.injector
}

func (a *App) sessionOptions() dictation.Options {
	decoding := transcribe.DefaultDecodingOptions()
	decoding.MaxTokens = a.cfg.MaxTokens
	// Caller holds a.mu, so langHint is safe to read here.
	decoding.Language = a.cfg.Language
	if a.cfg.Language == "auto" && a.langHint != "" {
		decoding.Language = a.langHint
	}

	return dictation.Options{
		RealTime:       a.cfg.RealTime,
		TickInterval:   time.Duration(a.cfg.TickIntervalMs) * time.Millisecond,
		MinTickAudio:   time.Duration(a.cfg.MinTickAudioMs) * time.Millisecond,
		MinDuration:    time.Duration(a.cfg.MinDurationMs) * time.Millisecond,
		SilenceRMS:     a.cfg.SilenceRMS,
		Decoding:       decoding,
		PasteMode:      a.cfg.InjectionMode == "paste",
		AllowInjection: a.injector != nil,
	}
}

// Close releases all components.
func (a *App) Close() {
	if a.hist != nil {
		if err := a.hist.Close(); err != nil {
			slog.Error("close history store", "error", err)
		}
	}
	if a.capture != nil {
		if err := a.capture.Close(); err != nil {
			slog.Error("close audio capture", "error", err)
		}
	}
	if err := a.registry.Close(); err != nil {
		slog.Error("close providers", "error", err)
	}
}
