//go:build windows

package main

import (
	"strings"

	"hotkeyclicker/internal/adapters/wininput"
	"hotkeyclicker/internal/core/autoclicker"
)

func openPlatformRuntime(keys autoclicker.Hotkeys, logger autoclicker.Logger) (inputRuntime, string, error) {
	rt, err := wininput.NewRuntime(wininput.RuntimeConfig{Hotkeys: keys}, logger)
	if err != nil {
		return nil, "", err
	}
	return rt, "windows", nil
}

func hotkeyName(code uint16) string {
	return strings.TrimPrefix(wininput.FormatCodeName(code), "KEY_")
}

func permissionDeniedHint() string {
	return "Permission denied registering global input hooks. Run as Administrator and ensure input-hooking is allowed."
}
