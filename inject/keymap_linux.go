//go:build linux

package inject

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const (
	vkBackspace = keybd_event.VK_BACKSPACE
	vkEnter     = keybd_event.VK_ENTER
)

func pasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}

// The uinput virtual keyboard needs a moment to register with the display
// server before events are honored.
func platformInit() {
	time.Sleep(2 * time.Second)
}
