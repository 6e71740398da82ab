//go:build linux

package main

import (
	"os"
	"strings"

	"hotkeyclicker/internal/adapters/linuxinput"
	"hotkeyclicker/internal/adapters/x11input"
	"hotkeyclicker/internal/core/autoclicker"
)

func openPlatformRuntime(keys autoclicker.Hotkeys, logger autoclicker.Logger) (inputRuntime, string, error) {
	switch resolveLinuxBackend() {
	case "x11":
		rt, err := x11input.NewRuntime(x11input.RuntimeConfig{Hotkeys: keys}, logger)
		if err != nil {
			return nil, "", err
		}
		return rt, "x11", nil
	default:
		rt, err := linuxinput.NewRuntime(linuxinput.RuntimeConfig{Hotkeys: keys}, logger)
		if err != nil {
			return nil, "", err
		}
		return rt, "evdev", nil
	}
}

func hotkeyName(code uint16) string {
	if name, ok := linuxinput.FunctionKeyName(code); ok {
		return name
	}
	return linuxinput.FormatCodeName(code)
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. On Wayland use root/udev for /dev/input + /dev/uinput. On X11 ensure an active X11 session and DISPLAY is set."
}

// resolveLinuxBackend picks X11 for X11 sessions and evdev/uinput otherwise.
func resolveLinuxBackend() string {
	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "evdev"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "evdev"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "evdev"
}
