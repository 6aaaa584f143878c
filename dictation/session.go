// Package dictation runs one push-to-talk session: audio accumulates while
// the trigger key is held, periodic ticks transcribe the audio so far and
// commit completed sentences, and releasing the key produces a final
// transcript that is reconciled against whatever was already delivered.
//
// Committed text is append-only during the session. A tick may only extend
// what earlier ticks delivered; revision happens once, at the end, through
// Reconcile.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxkey/voxkey/inject"
	"github.com/voxkey/voxkey/textproc"
	"github.com/voxkey/voxkey/transcribe"
)

// ErrNoSpeech is returned by Finish when the recording was too short or
// too quiet to contain speech.
var ErrNoSpeech = errors.New("dictation: no speech detected")

// minSamples is an absolute floor below which transcription is pointless
// regardless of the configured minimum duration. 100 ms at 16 kHz.
const minSamples = 1600

// Recorder supplies audio for the session. Satisfied by audiocapture.Capture.
type Recorder interface {
	Start() error
	Snapshot() []float32
	Stop() []float32
	Duration() time.Duration
	SampleRate() int
}

// Transcriber converts samples to text. Satisfied by transcribe.Provider.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, opts transcribe.DecodingOptions) (*transcribe.Result, error)
}

// TextOutput delivers text into the focused application. Satisfied by
// inject.Injector.
type TextOutput interface {
	Paste(ctx context.Context, text string) error
	Type(ctx context.Context, text string) error
	Correct(ctx context.Context, plan inject.CorrectionPlan) error
}

// Options configure a session. Zero values take the defaults.
type Options struct {
	// RealTime enables incremental commits while the key is held.
	RealTime bool

	// TickInterval is how often the tick loop wakes. Default 2s.
	TickInterval time.Duration

	// MinTickAudio is the least buffered audio worth transcribing on a
	// tick. Default 1s.
	MinTickAudio time.Duration

	// MinDuration is the least total recording worth finalizing; shorter
	// recordings are discarded. Default 500ms.
	MinDuration time.Duration

	// SilenceRMS is the RMS level below which a whole recording counts
	// as silence and is discarded. 0 disables the check.
	SilenceRMS float64

	// Decoding is passed to every transcription call.
	Decoding transcribe.DecodingOptions

	// PasteMode delivers committed segments via clipboard paste rather
	// than synthesized keystrokes.
	PasteMode bool

	// AllowInjection gates all delivery. When false the session only
	// produces the final transcript; nothing is typed or pasted and the
	// caller decides where the text goes.
	AllowInjection bool

	// Preview, when set, receives every cleaned transcript as it is
	// produced, including ones that commit nothing.
	Preview func(text string)
}

func (o *Options) applyDefaults() {
	if o.TickInterval == 0 {
		o.TickInterval = 2 * time.Second
	}
	if o.MinTickAudio == 0 {
		o.MinTickAudio = time.Second
	}
	if o.MinDuration == 0 {
		o.MinDuration = 500 * time.Millisecond
	}
}

// Session owns one hold-to-dictate interaction.
type Session struct {
	rec  Recorder
	tr   Transcriber
	out  TextOutput
	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	// transcribeMu serializes model calls: a tick in flight finishes
	// before the final transcription starts.
	transcribeMu sync.Mutex
	busy         atomic.Bool
	stopped      atomic.Bool

	mu        sync.Mutex
	committed string
}

// NewSession creates a session over the given recorder, transcriber, and
// output. The output may be nil when Options.AllowInjection is false.
func NewSession(rec Recorder, tr Transcriber, out TextOutput, opts Options) *Session {
	opts.applyDefaults()
	return &Session{rec: rec, tr: tr, out: out, opts: opts}
}

// Start begins recording and, in real-time mode, launches the tick loop.
func (s *Session) Start(ctx context.Context) error {
	if err := s.rec.Start(); err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	if s.opts.RealTime {
		go s.tickLoop()
	}
	slog.Debug("dictation session started", "real_time", s.opts.RealTime, "tick_interval", s.opts.TickInterval)
	return nil
}

// Committed returns the text delivered so far.
func (s *Session) Committed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

func (s *Session) tickLoop() {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick transcribes the audio captured so far and commits any newly
// completed sentences. If the previous tick is still transcribing, this
// one is skipped rather than queued; the next tick sees strictly more
// audio anyway.
func (s *Session) tick() {
	if s.stopped.Load() {
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		slog.Debug("tick skipped, transcription in flight")
		return
	}
	defer s.busy.Store(false)

	if s.rec.Duration() < s.opts.MinTickAudio {
		return
	}
	samples := s.rec.Snapshot()
	if len(samples) < minSamples {
		return
	}

	s.transcribeMu.Lock()
	defer s.transcribeMu.Unlock()
	if s.stopped.Load() {
		return
	}

	// The session context, not a per-tick one: a tick that outlives its
	// interval is still useful work, and Finish discards its commit via
	// the stopped flag rather than cancellation.
	res, err := s.tr.Transcribe(s.ctx, samples, s.opts.Decoding)
	if err != nil {
		slog.Debug("tick transcription failed", "error", err)
		return
	}

	text := textproc.Clean(res.Text)
	if text == "" {
		return
	}
	if s.opts.Preview != nil {
		s.opts.Preview(text)
	}
	if s.stopped.Load() {
		return
	}
	s.commitFrom(text)
}

// commitFrom extends the committed text from a fresh transcript. Only text
// up to the last completed sentence boundary is committed, and only when
// the transcript still agrees with everything committed before; on
// disagreement nothing is delivered and the final reconciliation sorts it
// out.
func (s *Session) commitFrom(text string) {
	s.mu.Lock()
	committed := s.committed
	s.mu.Unlock()

	var segment, updated string
	if committed == "" {
		b := textproc.SentenceBoundary(text)
		if b == 0 {
			return
		}
		segment = strings.TrimRight(text[:b], " \t\n")
		updated = segment
	} else {
		off := textproc.PrefixMatch(committed, text)
		if off == 0 {
			slog.Debug("transcript diverged from committed text, holding commit",
				"committed_len", len(committed), "transcript_len", len(text))
			return
		}
		remainder := text[off:]
		b := textproc.SentenceBoundary(remainder)
		if b == 0 {
			return
		}
		segment = strings.TrimRight(remainder[:b], " \t\n")
		if strings.TrimSpace(segment) == "" {
			return
		}
		updated = committed + segment
	}

	if !s.opts.AllowInjection {
		return
	}
	if err := s.deliver(s.ctx, segment); err != nil {
		slog.Warn("deliver segment", "error", err)
		return
	}

	s.mu.Lock()
	s.committed = updated
	s.mu.Unlock()
	slog.Debug("committed segment", "segment_len", len(segment), "total_len", len(updated))
}

func (s *Session) deliver(ctx context.Context, text string) error {
	if s.opts.PasteMode {
		return s.out.Paste(ctx, text)
	}
	return s.out.Type(ctx, text)
}

// Finish stops recording, runs the final transcription over the whole
// recording, reconciles it with the committed text, and returns the final
// transcript. Recordings below the duration or loudness thresholds return
// ErrNoSpeech.
func (s *Session) Finish(ctx context.Context) (string, error) {
	s.stopped.Store(true)
	samples := s.rec.Stop()

	// Wait for any in-flight tick before the final model call. The tick's
	// transcription runs on the session context, so cancellation must wait
	// until the mutex is ours: the in-flight call completes and its result
	// is discarded via the stopped flag, never aborted mid-request.
	s.transcribeMu.Lock()
	defer s.transcribeMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}

	committed := s.Committed()

	rate := s.rec.SampleRate()
	if rate <= 0 {
		rate = 16000
	}
	dur := time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second))
	if dur < s.opts.MinDuration || len(samples) < minSamples {
		slog.Debug("recording too short, discarding", "duration", dur)
		return committed, ErrNoSpeech
	}
	if s.opts.SilenceRMS > 0 && rms(samples) < s.opts.SilenceRMS {
		slog.Debug("recording below silence threshold, discarding", "rms", rms(samples))
		return committed, ErrNoSpeech
	}

	res, err := s.tr.Transcribe(ctx, samples, s.opts.Decoding)
	if err != nil {
		return committed, fmt.Errorf("final transcription: %w", err)
	}
	final := textproc.Clean(res.Text)
	if s.opts.Preview != nil && final != "" {
		s.opts.Preview(final)
	}
	if final == "" {
		if committed == "" {
			return "", ErrNoSpeech
		}
		return committed, nil
	}

	if !s.opts.AllowInjection {
		return final, nil
	}

	rec := Reconcile(committed, final)
	slog.Debug("reconciling final transcript", "decision", rec.Kind.String(),
		"committed_len", len(committed), "final_len", len(final))
	switch rec.Kind {
	case DecisionNone:
	case DecisionFullPaste:
		if err := s.deliver(ctx, final); err != nil {
			return final, fmt.Errorf("deliver final transcript: %w", err)
		}
	case DecisionAppend:
		if err := s.deliver(ctx, rec.Append); err != nil {
			return final, fmt.Errorf("deliver remainder: %w", err)
		}
	case DecisionCorrect:
		if err := s.out.Correct(ctx, rec.Plan); err != nil {
			return final, fmt.Errorf("apply correction: %w", err)
		}
	}
	return final, nil
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
