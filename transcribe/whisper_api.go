package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ Provider = (*WhisperAPI)(nil)

// WhisperAPI implements Provider using OpenAI's transcription API.
type WhisperAPI struct {
	client openai.Client
	model  string

	mu    sync.RWMutex
	ready bool
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to OpenAI's API
	Model   string // Optional, defaults to "whisper-1"
}

// NewWhisperAPI creates a new WhisperAPI provider.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &WhisperAPI{
		client: openai.NewClient(opts...),
		model:  model,
		ready:  cfg.APIKey != "",
	}
}

func (p *WhisperAPI) Name() string { return "whisper-api" }

func (p *WhisperAPI) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Transcribe sends the samples to the transcription API as a WAV payload.
func (p *WhisperAPI) Transcribe(ctx context.Context, samples []float32, opts DecodingOptions) (*Result, error) {
	if !p.IsReady() {
		return nil, errors.New("transcribe: API key required")
	}
	if len(samples) == 0 {
		return &Result{}, nil
	}

	wavData := encodeWAV(samples, whisperSampleRate)

	params := openai.AudioTranscriptionNewParams{
		File:        openai.File(bytes.NewReader(wavData), "audio.wav", "audio/wav"),
		Model:       openai.AudioModel(p.model),
		Temperature: openai.Float(opts.Temperature),
	}
	// The API auto-detects when language is omitted; it rejects "auto".
	lang := strings.TrimSpace(opts.Language)
	if lang != "" && lang != "auto" {
		params.Language = openai.String(lang)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	return &Result{Text: resp.Text, Language: lang}, nil
}

func (p *WhisperAPI) Close() error {
	return nil
}
