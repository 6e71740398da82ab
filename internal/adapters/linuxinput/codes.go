package linuxinput

import (
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

func FormatCodeName(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name != "" {
		return name
	}
	return strconv.Itoa(int(code))
}

// FunctionKeyName returns the bare key name ("F4") for a function key code.
func FunctionKeyName(code uint16) (string, bool) {
	token := strings.TrimPrefix(FormatCodeName(code), "KEY_")
	if len(token) < 2 || token[0] != 'F' {
		return "", false
	}
	if _, err := strconv.Atoi(token[1:]); err != nil {
		return "", false
	}
	return token, true
}
