// Package hotkey watches the global keyboard for the push-to-talk key and
// reports press and release edges. It uses an OS-level hook so the key
// works regardless of which application has focus.
package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	hook "github.com/robotn/gohook"
)

// Listener watches one key and fires callbacks on its press and release.
// OS key repeat is debounced: holding the key fires OnDown exactly once.
type Listener struct {
	key     string
	keycode uint16

	// OnDown fires when the key goes down, OnUp when it is released.
	// Both run on the event loop goroutine; long work belongs elsewhere.
	OnDown func()
	OnUp   func()
}

// New creates a listener for the named key, e.g. "f8" or "ralt".
func New(key string, onDown, onUp func()) (*Listener, error) {
	name := strings.ToLower(strings.TrimSpace(key))
	code, ok := hook.Keycode[name]
	if !ok {
		return nil, fmt.Errorf("unknown trigger key: %q", key)
	}
	return &Listener{key: name, keycode: code, OnDown: onDown, OnUp: onUp}, nil
}

// Key returns the normalized key name being watched.
func (l *Listener) Key() string { return l.key }

// Run installs the keyboard hook and processes events until ctx is
// cancelled. It blocks; run it on its own goroutine.
func (l *Listener) Run(ctx context.Context) error {
	events := hook.Start()
	defer hook.End()

	slog.Info("push-to-talk listener running", "key", l.key)

	// Rawcode of the key currently held. Release events on some
	// platforms carry only the raw code, so it is captured on press.
	var (
		held      bool
		activeRaw uint16
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold:
				if ev.Keycode != l.keycode || held {
					continue
				}
				held = true
				activeRaw = ev.Rawcode
				if l.OnDown != nil {
					l.OnDown()
				}
			case hook.KeyUp:
				if !held || (ev.Keycode != l.keycode && ev.Rawcode != activeRaw) {
					continue
				}
				held = false
				if l.OnUp != nil {
					l.OnUp()
				}
			}
		}
	}
}
