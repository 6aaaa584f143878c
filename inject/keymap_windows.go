//go:build windows

package inject

import "github.com/micmonay/keybd_event"

const (
	vkBackspace = keybd_event.VK_BACK
	vkEnter     = keybd_event.VK_RETURN
)

func pasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}

func platformInit() {}
