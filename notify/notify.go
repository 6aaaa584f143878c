// Package notify sends desktop notifications for session lifecycle events.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

const title = "Voxkey"

// Notifier sends desktop notifications. A disabled notifier drops
// everything silently, so call sites never need to check the setting.
type Notifier struct {
	enabled bool
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// Discarded reports a recording dropped for being too short or silent.
func (n *Notifier) Discarded() {
	n.send("Recording discarded: no speech detected")
}

// CopiedToClipboard reports a transcript delivered via the clipboard only.
func (n *Notifier) CopiedToClipboard() {
	n.send("Transcript copied to clipboard")
}

// Error reports a failed session.
func (n *Notifier) Error(msg string) {
	n.send("Dictation failed: " + msg)
}

func (n *Notifier) send(msg string) {
	if !n.enabled {
		return
	}
	if err := beeep.Notify(title, msg, ""); err != nil {
		slog.Warn("send notification", "error", err)
	}
}
