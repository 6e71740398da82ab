//go:build darwin

package main

import (
	"strconv"
	"strings"

	"hotkeyclicker/internal/adapters/macinput"
	"hotkeyclicker/internal/core/autoclicker"
)

func openPlatformRuntime(keys autoclicker.Hotkeys, logger autoclicker.Logger) (inputRuntime, string, error) {
	rt, err := macinput.NewRuntime(macinput.RuntimeConfig{Hotkeys: keys}, logger)
	if err != nil {
		return nil, "", err
	}
	return rt, "darwin", nil
}

func hotkeyName(code uint16) string {
	if name, ok := macinput.KeyName(code); ok {
		return strings.ToUpper(name)
	}
	return strconv.Itoa(int(code))
}

func permissionDeniedHint() string {
	return "Permission denied. Allow this app under System Settings > Privacy & Security > Accessibility."
}
