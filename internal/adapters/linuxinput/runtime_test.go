//go:build linux

package linuxinput

import (
	"testing"

	"hotkeyclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

func TestHotkeyEventKeepsOnlyBoundKeys(t *testing.T) {
	r := &Runtime{hotkeys: autoclicker.DefaultHotkeys}

	tests := []struct {
		name  string
		event *evdev.InputEvent
		ok    bool
	}{
		{name: "F4 press", event: &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_F4, Value: 1}, ok: true},
		{name: "F5 release", event: &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_F5, Value: 0}, ok: true},
		{name: "other key", event: &evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.KEY_A, Value: 1}},
		{name: "sync", event: &evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT}},
		{name: "nil", event: nil},
	}

	for _, tc := range tests {
		ev, ok := r.hotkeyEvent(tc.event)
		if ok != tc.ok {
			t.Fatalf("%s: ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if ok && (ev.Type != autoclicker.EventTypeKey || ev.Code != uint16(tc.event.Code) || ev.Value != tc.event.Value) {
			t.Fatalf("%s: event = %+v", tc.name, ev)
		}
	}
}
