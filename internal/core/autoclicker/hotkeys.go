package autoclicker

import (
	"fmt"
	"sync"
)

// Hotkeys holds the evdev key codes bound to start and stop.
type Hotkeys struct {
	Start uint16
	Stop  uint16
}

var DefaultHotkeys = Hotkeys{Start: KeyF4Code, Stop: KeyF5Code}

func (h Hotkeys) Codes() []uint16 {
	return []uint16{h.Start, h.Stop}
}

type Controller interface {
	Start() error
	Stop()
}

// heldKey identifies one hotkey on one keyboard.
type heldKey struct {
	source string
	code   uint16
}

// HotkeyDispatcher maps F4/F5 key events from an input adapter to engine
// Start and Stop. A key fires once when it goes down and again only after
// it has been released on the same keyboard.
type HotkeyDispatcher struct {
	keys   Hotkeys
	ctl    Controller
	logger Logger

	mu   sync.Mutex
	down map[heldKey]bool
}

func NewHotkeyDispatcher(keys Hotkeys, ctl Controller, logger Logger) (*HotkeyDispatcher, error) {
	if ctl == nil {
		return nil, fmt.Errorf("controller is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if keys.Start == keys.Stop {
		return nil, fmt.Errorf("start and stop hotkeys must differ")
	}
	return &HotkeyDispatcher{
		keys:    keys,
		ctl:     ctl,
		logger:  logger,
		down:    make(map[heldKey]bool),
	}, nil
}

// HandleEvent reports whether the event belonged to a bound hotkey.
func (d *HotkeyDispatcher) HandleEvent(source string, event Event) bool {
	if event.Type != EventTypeKey {
		return false
	}
	if event.Code != d.keys.Start && event.Code != d.keys.Stop {
		return false
	}

	key := heldKey{source: source, code: event.Code}
	d.mu.Lock()
	wasDown := d.down[key]
	switch event.Value {
	case KeyReleased:
		delete(d.down, key)
	case KeyPressed:
		d.down[key] = true
	}
	d.mu.Unlock()

	if event.Value != KeyPressed || wasDown {
		return true
	}

	if event.Code == d.keys.Start {
		d.logger.Debug("Start hotkey pressed", "source", source)
		if err := d.ctl.Start(); err != nil {
			d.logger.Warn("Start hotkey ignored", "err", err)
		}
		return true
	}

	d.logger.Debug("Stop hotkey pressed", "source", source)
	d.ctl.Stop()
	return true
}
