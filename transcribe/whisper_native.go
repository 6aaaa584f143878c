// This file contains the native provider backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH.

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

var _ Provider = (*WhisperNative)(nil)

// WhisperNative implements Provider using the whisper.cpp Go bindings.
// The model is loaded once and shared; each Transcribe call creates a
// fresh inference context because contexts are not thread-safe.
type WhisperNative struct {
	modelPath string

	mu    sync.Mutex
	model whisperlib.Model
}

// NewWhisperNative loads the whisper.cpp model from the given file path.
// The caller must call Close when the provider is no longer needed.
func NewWhisperNative(modelPath string) (*WhisperNative, error) {
	if modelPath == "" {
		return nil, errors.New("transcribe: model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", modelPath, err)
	}
	return &WhisperNative{modelPath: modelPath, model: model}, nil
}

func (p *WhisperNative) Name() string { return "whisper-native" }

func (p *WhisperNative) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// Transcribe runs whisper.cpp inference over the samples. Calls are
// serialized; the bindings share one model but inference contexts must not
// run concurrently against it with overlapping compute buffers.
func (p *WhisperNative) Transcribe(ctx context.Context, samples []float32, opts DecodingOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return &Result{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil, errors.New("transcribe: provider closed")
	}

	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}

	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(uint(runtime.NumCPU()))
	if opts.MaxTokens > 0 {
		wctx.SetMaxTokensPerSegment(uint(opts.MaxTokens))
	}
	wctx.SetTemperature(float32(opts.Temperature))
	// The bindings expose the fallback temperature step, not the retry
	// count. A positive count enables the standard 0.2 step; the library
	// walks it up to 1.0 on failed quality checks.
	if opts.FallbackCount > 0 {
		wctx.SetTemperatureFallback(0.2)
	} else {
		wctx.SetTemperatureFallback(0)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	if strings.EqualFold(text, "[BLANK_AUDIO]") {
		text = ""
	}
	return &Result{Text: text, Language: wctx.Language()}, nil
}

// Close releases the whisper model.
func (p *WhisperNative) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	return err
}
