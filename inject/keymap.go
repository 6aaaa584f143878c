package inject

import (
	"unicode"

	"github.com/micmonay/keybd_event"
)

// keyByRune maps the runes with stable virtual-key codes across platforms.
// Everything else goes through the clipboard fallback in Type.
var keyByRune = map[rune]int{
	'a': keybd_event.VK_A, 'b': keybd_event.VK_B, 'c': keybd_event.VK_C,
	'd': keybd_event.VK_D, 'e': keybd_event.VK_E, 'f': keybd_event.VK_F,
	'g': keybd_event.VK_G, 'h': keybd_event.VK_H, 'i': keybd_event.VK_I,
	'j': keybd_event.VK_J, 'k': keybd_event.VK_K, 'l': keybd_event.VK_L,
	'm': keybd_event.VK_M, 'n': keybd_event.VK_N, 'o': keybd_event.VK_O,
	'p': keybd_event.VK_P, 'q': keybd_event.VK_Q, 'r': keybd_event.VK_R,
	's': keybd_event.VK_S, 't': keybd_event.VK_T, 'u': keybd_event.VK_U,
	'v': keybd_event.VK_V, 'w': keybd_event.VK_W, 'x': keybd_event.VK_X,
	'y': keybd_event.VK_Y, 'z': keybd_event.VK_Z,
	'0': keybd_event.VK_0, '1': keybd_event.VK_1, '2': keybd_event.VK_2,
	'3': keybd_event.VK_3, '4': keybd_event.VK_4, '5': keybd_event.VK_5,
	'6': keybd_event.VK_6, '7': keybd_event.VK_7, '8': keybd_event.VK_8,
	'9': keybd_event.VK_9,
	' ': keybd_event.VK_SPACE,
}

// lookupKey returns the virtual-key code for a rune, with shift set for
// uppercase letters. ok is false for runes without a direct mapping.
func lookupKey(r rune) (key int, shift bool, ok bool) {
	if r == '\n' {
		return vkEnter, false, true
	}
	if unicode.IsUpper(r) {
		key, ok = keyByRune[unicode.ToLower(r)]
		return key, true, ok
	}
	key, ok = keyByRune[r]
	return key, false, ok
}
