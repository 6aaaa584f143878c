//go:build darwin

package inject

import "github.com/micmonay/keybd_event"

// macOS names its delete-backwards key VK_DELETE.
const (
	vkBackspace = keybd_event.VK_DELETE
	vkEnter     = keybd_event.VK_RETURN
)

func pasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true)
}

func platformInit() {}
