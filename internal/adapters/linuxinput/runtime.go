//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"hotkeyclicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

type RuntimeConfig struct {
	Hotkeys autoclicker.Hotkeys
}

// Runtime clicks through a uinput virtual pointer and watches physical
// keyboards for the hotkeys. Hotkeys are observed, never grabbed.
type Runtime struct {
	sourceDevices []*evdev.InputDevice
	injector      *evdevInjector
	hotkeys       autoclicker.Hotkeys
	logger        autoclicker.Logger

	startOnce sync.Once
	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

type evdevInjector struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

func (e *evdevInjector) WriteEvents(events ...autoclicker.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dev == nil {
		return fmt.Errorf("uinput device is closed")
	}
	for _, event := range events {
		ev := evdev.InputEvent{
			Type:  evdev.EvType(event.Type),
			Code:  evdev.EvCode(event.Code),
			Value: event.Value,
		}
		if err := e.dev.WriteOne(&ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *evdevInjector) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dev == nil {
		return nil
	}
	err := e.dev.Close()
	e.dev = nil
	return err
}

func NewRuntime(cfg RuntimeConfig, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	sources, err := OpenHotkeySources(cfg.Hotkeys.Codes()...)
	if err != nil {
		return nil, err
	}
	for _, dev := range sources {
		name, _ := dev.Name()
		logger.Info("Watching keyboard for hotkeys", "path", dev.Path(), "name", name)
	}

	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}
	injectorDev, err := evdev.CreateDevice(virtualDeviceName, id, pointerCapabilities())
	if err != nil {
		closeInputDevices(sources)
		return nil, fmt.Errorf("failed to create uinput pointer: %w", err)
	}

	return &Runtime{
		sourceDevices: sources,
		injector:      &evdevInjector{dev: injectorDev},
		hotkeys:       cfg.Hotkeys,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}, nil
}

func (r *Runtime) Injector() autoclicker.Injector {
	return r.injector
}

func (r *Runtime) Start(sink autoclicker.EventSink) error {
	if sink == nil {
		return fmt.Errorf("event sink is nil")
	}
	for _, dev := range r.sourceDevices {
		if err := dev.NonBlock(); err != nil {
			return fmt.Errorf("failed to set nonblocking mode for %s: %w", dev.Path(), err)
		}
	}

	r.startOnce.Do(func() {
		for _, dev := range r.sourceDevices {
			r.readersWG.Add(1)
			go r.readLoop(dev, sink)
		}
	})
	return nil
}

// Stop closes the keyboard sources and waits for their readers. The uinput
// pointer belongs to the click engine and is closed with it.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		closeInputDevices(r.sourceDevices)
		r.readersWG.Wait()
		r.logger.Info("Released hotkeys", "backend", "evdev")
	})
}

func (r *Runtime) readLoop(dev *evdev.InputDevice, sink autoclicker.EventSink) {
	defer r.readersWG.Done()

	path := dev.Path()
	for {
		event, err := dev.ReadOne()
		if err != nil {
			if r.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !r.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			r.logger.Warn("Read failed", "path", path, "err", err)
			if !r.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}
		if ev, ok := r.hotkeyEvent(event); ok {
			sink.HandleEvent(path, ev)
		}
	}
}

// hotkeyEvent keeps only F4/F5 key events; other keystrokes never leave
// the adapter.
func (r *Runtime) hotkeyEvent(event *evdev.InputEvent) (autoclicker.Event, bool) {
	if event == nil || event.Type != evdev.EV_KEY {
		return autoclicker.Event{}, false
	}
	code := uint16(event.Code)
	if code != r.hotkeys.Start && code != r.hotkeys.Stop {
		return autoclicker.Event{}, false
	}
	return autoclicker.Event{Type: autoclicker.EventTypeKey, Code: code, Value: event.Value}, true
}

func (r *Runtime) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func (r *Runtime) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-r.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// pointerCapabilities advertises relative axes so compositors treat the
// device as a mouse even though it only ever sends button events.
func pointerCapabilities() map[evdev.EvType][]evdev.EvCode {
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT},
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}
}

func closeInputDevices(devices []*evdev.InputDevice) {
	for _, dev := range devices {
		_ = dev.Close()
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
