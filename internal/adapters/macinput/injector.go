package macinput

import (
	"fmt"
	"sync"

	"hotkeyclicker/internal/core/autoclicker"
)

// toggleInjector presses and releases buttons through a robotgo-style
// Toggle(button[, "up"]) call.
type toggleInjector struct {
	mu     sync.Mutex
	toggle func(args ...interface{}) error
}

func (i *toggleInjector) WriteEvents(events ...autoclicker.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, event := range events {
		if event.Type != autoclicker.EventTypeKey {
			continue
		}
		button, ok := buttonName(event.Code)
		if !ok {
			continue
		}

		var err error
		switch event.Value {
		case autoclicker.KeyPressed:
			err = i.toggle(button)
		case autoclicker.KeyReleased:
			err = i.toggle(button, "up")
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("toggle %s button: %w", button, err)
		}
	}
	return nil
}

func (i *toggleInjector) Close() error {
	return nil
}
