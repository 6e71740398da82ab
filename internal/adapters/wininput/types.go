package wininput

import "hotkeyclicker/internal/core/autoclicker"

type RuntimeConfig struct {
	Hotkeys autoclicker.Hotkeys
}
