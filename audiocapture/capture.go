// Package audiocapture records microphone input through PortAudio and
// maintains the rolling sample buffer consumed by the dictation pipeline.
// Incoming audio is resampled to the target rate inside the capture
// callback, so the buffer only ever holds normalized samples.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrAlreadyRecording is returned when Start is called while recording.
var ErrAlreadyRecording = errors.New("audiocapture: already recording")

// levelGain scales raw RMS into the advisory [0,1] loudness level. Speech on
// a typical microphone peaks around RMS 0.08; the gain maps that near 1.0.
const levelGain = 12.0

// Config holds capture configuration.
type Config struct {
	// SampleRate is the normalized output rate. Defaults to 16000 Hz,
	// which is what Whisper expects.
	SampleRate int

	// FramesPerBuffer is the PortAudio callback chunk size at the device
	// rate. Defaults to 1024.
	FramesPerBuffer int

	// LevelFunc, when set, receives a loudness level in [0,1] for every
	// captured chunk. Advisory only; not part of the correctness path.
	LevelFunc func(level float64)

	// DumpDir, when non-empty, receives a WAV file of every drained
	// recording for model debugging.
	DumpDir string
}

// Capture owns the PortAudio stream and the per-session sample buffer.
type Capture struct {
	sampleRate int
	frames     int
	levelFn    func(float64)
	dumpDir    string

	mu        sync.Mutex
	buf       *SampleBuffer
	stream    *portaudio.Stream
	recording bool
}

// New initializes PortAudio and creates a Capture. Call Close when done.
func New(cfg Config) (*Capture, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.FramesPerBuffer == 0 {
		cfg.FramesPerBuffer = 1024
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &Capture{
		sampleRate: cfg.SampleRate,
		frames:     cfg.FramesPerBuffer,
		levelFn:    cfg.LevelFunc,
		dumpDir:    cfg.DumpDir,
		buf:        NewSampleBuffer(cfg.SampleRate),
	}, nil
}

// Start opens the default input device and begins filling the buffer.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		return ErrAlreadyRecording
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("default input device: %w", err)
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.FramesPerBuffer = c.frames
	deviceRate := params.SampleRate

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		c.handleChunk(in, deviceRate)
	})
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	c.stream = stream
	c.recording = true
	slog.Debug("audio capture started", "device", dev.Name, "device_rate", deviceRate, "target_rate", c.sampleRate)
	return nil
}

// handleChunk runs on the PortAudio callback thread: normalize first, then
// append, so the buffer never holds anything at the device rate.
func (c *Capture) handleChunk(in []float32, deviceRate float64) {
	samples := resampleLinear(in, deviceRate, float64(c.sampleRate))
	if len(samples) == 0 {
		return
	}
	c.buf.Append(samples)

	if c.levelFn != nil {
		level := RMS(samples) * levelGain
		if level > 1 {
			level = 1
		}
		c.levelFn(level)
	}
}

// Snapshot returns a copy of everything captured so far in the current
// recording, without clearing it.
func (c *Capture) Snapshot() []float32 {
	return c.buf.Snapshot()
}

// Stop ends the recording and returns all captured samples, clearing the
// buffer. Idempotent: calling while not recording returns an empty slice.
func (c *Capture) Stop() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		if err := c.stream.Stop(); err != nil {
			slog.Warn("stop input stream", "error", err)
		}
		if err := c.stream.Close(); err != nil {
			slog.Warn("close input stream", "error", err)
		}
		c.stream = nil
		c.recording = false
	}

	samples := c.buf.Drain()
	if c.dumpDir != "" && len(samples) > 0 {
		if err := dumpWAV(c.dumpDir, samples, c.sampleRate); err != nil {
			slog.Warn("dump recording", "error", err)
		}
	}
	return samples
}

// Duration returns the duration of audio buffered so far.
func (c *Capture) Duration() time.Duration {
	return c.buf.Duration()
}

// SampleRate returns the normalized output rate.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

// Close releases PortAudio. The capture is unusable afterwards.
func (c *Capture) Close() error {
	c.Stop()
	return portaudio.Terminate()
}
