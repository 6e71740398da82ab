//go:build !linux && !windows && !darwin

package main

import (
	"fmt"
	"strconv"

	"hotkeyclicker/internal/core/autoclicker"
)

func openPlatformRuntime(_ autoclicker.Hotkeys, _ autoclicker.Logger) (inputRuntime, string, error) {
	return nil, "", fmt.Errorf("clicker runtime is not supported on this platform")
}

func hotkeyName(code uint16) string {
	return strconv.Itoa(int(code))
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}
