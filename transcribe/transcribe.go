// Package transcribe provides the speech-to-text provider interface and
// implementations.
package transcribe

import (
	"context"
	"errors"
)

// Result represents the result of a transcription.
type Result struct {
	Text     string `json:"text"`     // Transcribed text
	Language string `json:"language"` // Detected or requested language code
}

// DecodingOptions control how a provider decodes audio into text.
type DecodingOptions struct {
	// Language is the source language code, or "auto" to detect.
	Language string

	// Temperature is the initial sampling temperature. 0 is greedy.
	Temperature float64

	// FallbackCount is how many increasing-temperature retries a provider
	// may attempt when a decode fails quality checks. 0 disables fallback.
	FallbackCount int

	// MaxTokens caps tokens per decoded segment. 0 means no cap.
	MaxTokens int

	// CompressionRatioCeiling marks a decode as degenerate when the text
	// compresses better than this ratio (repetition loops).
	CompressionRatioCeiling float64

	// LogProbFloor marks a decode as failed when the average token log
	// probability falls below it.
	LogProbFloor float64

	// NoSpeechFloor is the no-speech probability above which a segment is
	// treated as silence.
	NoSpeechFloor float64
}

// DefaultDecodingOptions returns the standard Whisper decoding thresholds
// with greedy sampling.
func DefaultDecodingOptions() DecodingOptions {
	return DecodingOptions{
		Language:                "auto",
		Temperature:             0,
		FallbackCount:           5,
		CompressionRatioCeiling: 2.4,
		LogProbFloor:            -1.0,
		NoSpeechFloor:           0.6,
	}
}

// Provider defines the interface for speech-to-text providers. Both local
// (whisper.cpp) and remote (OpenAI API) implementations must satisfy this
// interface.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// IsReady returns true if the provider is ready to use.
	IsReady() bool

	// Transcribe converts audio samples to text.
	// samples: PCM float32 at 16000 Hz.
	Transcribe(ctx context.Context, samples []float32, opts DecodingOptions) (*Result, error)

	// Close releases resources held by the provider.
	Close() error
}

// Registry holds registered providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns a provider by name, nil when absent.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// List returns all registered providers.
func (r *Registry) List() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}

// Close releases every provider. All providers are closed even when some
// fail; the errors are joined.
func (r *Registry) Close() error {
	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
