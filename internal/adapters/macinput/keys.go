package macinput

import (
	"fmt"

	"hotkeyclicker/internal/core/autoclicker"
)

type RuntimeConfig struct {
	Hotkeys autoclicker.Hotkeys
}

// Function keys in evdev numbering mapped to the names the hook library
// and robotgo use.
var functionKeys = map[uint16]string{
	59: "f1",
	60: "f2",
	61: "f3",
	62: "f4",
	63: "f5",
	64: "f6",
	65: "f7",
	66: "f8",
	67: "f9",
	68: "f10",
	87: "f11",
	88: "f12",
}

func KeyName(code uint16) (string, bool) {
	name, ok := functionKeys[code]
	return name, ok
}

func buttonName(code uint16) (string, bool) {
	switch code {
	case autoclicker.LeftButtonCode:
		return "left", true
	case autoclicker.RightButtonCode:
		return "right", true
	default:
		return "", false
	}
}

// hotkeyTable maps hook keycodes back to evdev codes. lookup resolves a
// key name to the hook library's keycode.
func hotkeyTable(keys autoclicker.Hotkeys, lookup func(string) (uint16, bool)) (map[uint16]uint16, error) {
	table := make(map[uint16]uint16, 2)
	for _, code := range keys.Codes() {
		name, ok := KeyName(code)
		if !ok {
			return nil, fmt.Errorf("unsupported hotkey code %d", code)
		}
		raw, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("hook library has no keycode for %s", name)
		}
		table[raw] = code
	}
	return table, nil
}
