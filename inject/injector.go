// Package inject delivers text into the focused application, either by
// placing it on the clipboard and sending the platform paste chord or by
// synthesizing individual keystrokes. Corrections are applied as backspace
// runs followed by retyped suffixes.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// largeDeletion is the backspace count past which an extra settle pause is
// inserted, so slow editors do not drop the keystrokes that follow.
const largeDeletion = 8

// Options tune injection timing. Zero values take the defaults.
type Options struct {
	// CharDelay is the pause between synthesized keystrokes.
	CharDelay time.Duration

	// PasteSettle is how long to wait after sending the paste chord
	// before touching the clipboard again.
	PasteSettle time.Duration

	// ClipboardRestore is the pause before restoring the user's previous
	// clipboard contents.
	ClipboardRestore time.Duration

	// BackspaceSettle is the extra pause after a large deletion run.
	BackspaceSettle time.Duration
}

func (o *Options) applyDefaults() {
	if o.CharDelay == 0 {
		o.CharDelay = 12 * time.Millisecond
	}
	if o.PasteSettle == 0 {
		o.PasteSettle = 150 * time.Millisecond
	}
	if o.ClipboardRestore == 0 {
		o.ClipboardRestore = 120 * time.Millisecond
	}
	if o.BackspaceSettle == 0 {
		o.BackspaceSettle = 80 * time.Millisecond
	}
}

// Injector owns the virtual keyboard and serializes all clipboard traffic.
type Injector struct {
	opts Options

	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// New creates an Injector. On Linux this waits for the uinput virtual
// device to register before returning.
func New(opts Options) (*Injector, error) {
	opts.applyDefaults()

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	platformInit()

	return &Injector{opts: opts, kb: kb}, nil
}

// Paste places text on the clipboard, sends the platform paste chord, and
// restores the previous clipboard contents. A missing or unreadable prior
// clipboard is tolerated; restore is skipped in that case.
func (inj *Injector) Paste(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	inj.mu.Lock()
	defer inj.mu.Unlock()

	prev, prevErr := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	inj.kb.Clear()
	inj.kb.SetKeys(keybd_event.VK_V)
	pasteModifier(&inj.kb)
	if err := inj.kb.Launching(); err != nil {
		return fmt.Errorf("send paste chord: %w", err)
	}

	if err := sleepCtx(ctx, inj.opts.PasteSettle); err != nil {
		return err
	}
	if prevErr == nil {
		if err := sleepCtx(ctx, inj.opts.ClipboardRestore); err != nil {
			return err
		}
		if err := clipboard.WriteAll(prev); err != nil {
			slog.Warn("restore clipboard", "error", err)
		}
	}
	return nil
}

// Type emits text as individual keystrokes. Runes without a direct key
// mapping fall back to a single-character paste so punctuation and
// non-Latin text still arrive intact.
func (inj *Injector) Type(ctx context.Context, text string) error {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	return inj.typeLocked(ctx, text)
}

func (inj *Injector) typeLocked(ctx context.Context, text string) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, shift, ok := lookupKey(r)
		if !ok {
			if err := inj.pasteRune(ctx, r); err != nil {
				return err
			}
			continue
		}

		inj.kb.Clear()
		inj.kb.SetKeys(key)
		inj.kb.HasSHIFT(shift)
		if err := inj.kb.Launching(); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		if err := sleepCtx(ctx, inj.opts.CharDelay); err != nil {
			return err
		}
	}
	return nil
}

// Correct applies a correction plan: a run of backspaces, then the suffix.
func (inj *Injector) Correct(ctx context.Context, plan CorrectionPlan) error {
	if plan.IsNoop() {
		return nil
	}

	inj.mu.Lock()
	defer inj.mu.Unlock()

	for i := 0; i < plan.Backspaces; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		inj.kb.Clear()
		inj.kb.SetKeys(vkBackspace)
		if err := inj.kb.Launching(); err != nil {
			return fmt.Errorf("send backspace: %w", err)
		}
		if err := sleepCtx(ctx, inj.opts.CharDelay); err != nil {
			return err
		}
	}
	if plan.Backspaces >= largeDeletion {
		if err := sleepCtx(ctx, inj.opts.BackspaceSettle); err != nil {
			return err
		}
	}

	return inj.typeLocked(ctx, plan.Suffix)
}

// pasteRune pushes one rune through the clipboard without restoring the
// previous contents; callers on the Type path restore nothing since the
// user initiated the dictation.
func (inj *Injector) pasteRune(ctx context.Context, r rune) error {
	if err := clipboard.WriteAll(string(r)); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	inj.kb.Clear()
	inj.kb.SetKeys(keybd_event.VK_V)
	pasteModifier(&inj.kb)
	if err := inj.kb.Launching(); err != nil {
		return fmt.Errorf("send paste chord: %w", err)
	}
	return sleepCtx(ctx, inj.opts.CharDelay)
}

// Copy places text on the clipboard and leaves it there. Used as the
// delivery path when keystroke injection is unavailable or disabled.
func Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
