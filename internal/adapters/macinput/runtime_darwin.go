//go:build darwin

package macinput

import (
	"fmt"
	"sync"

	"hotkeyclicker/internal/core/autoclicker"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
)

const sourceName = "darwin-global"

// Runtime listens for hotkeys through the global event tap and clicks
// with robotgo. Both need the Accessibility permission.
type Runtime struct {
	logger autoclicker.Logger
	codes  map[uint16]uint16

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewRuntime(cfg RuntimeConfig, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	codes, err := hotkeyTable(cfg.Hotkeys, func(name string) (uint16, bool) {
		raw, ok := hook.Keycode[name]
		return raw, ok
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		logger: logger,
		codes:  codes,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

func (r *Runtime) Injector() autoclicker.Injector {
	return &toggleInjector{toggle: robotgo.Toggle}
}

func (r *Runtime) Start(sink autoclicker.EventSink) error {
	if sink == nil {
		return fmt.Errorf("event sink is nil")
	}
	started := false
	r.startOnce.Do(func() {
		started = true
		events := hook.Start()
		go r.eventLoop(events, sink)
	})
	if !started {
		return fmt.Errorf("darwin runtime already started")
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		started := true
		r.startOnce.Do(func() { started = false })
		if started {
			hook.End()
			<-r.doneCh
		}
		r.logger.Info("Released hotkeys", "backend", "darwin")
	})
}

func (r *Runtime) eventLoop(events chan hook.Event, sink autoclicker.EventSink) {
	defer close(r.doneCh)
	for {
		select {
		case <-r.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var value int32
			switch ev.Kind {
			case hook.KeyHold:
				value = autoclicker.KeyPressed
			case hook.KeyUp:
				value = autoclicker.KeyReleased
			default:
				continue
			}
			code, ok := r.codes[ev.Keycode]
			if !ok {
				continue
			}
			sink.HandleEvent(sourceName, autoclicker.Event{
				Type:  autoclicker.EventTypeKey,
				Code:  code,
				Value: value,
			})
		}
	}
}
