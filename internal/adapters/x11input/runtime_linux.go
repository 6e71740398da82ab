//go:build linux

package x11input

import (
	"fmt"
	"sync"

	"hotkeyclicker/internal/adapters/linuxinput"
	"hotkeyclicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

const sourceName = "x11-global"

type RuntimeConfig struct {
	Hotkeys autoclicker.Hotkeys
}

// Runtime clicks with XTest and grabs the hotkeys on the root window.
type Runtime struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	logger  autoclicker.Logger

	// keyToCode is fixed after NewRuntime, so the event loop reads it unlocked.
	keyToCode   map[xproto.Keycode]uint16
	grabbedKeys []xproto.Keycode

	injectMu sync.Mutex
	closed   bool

	startOnce sync.Once
	started   bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

type x11Injector struct {
	r *Runtime
}

func (i *x11Injector) WriteEvents(events ...autoclicker.Event) error {
	i.r.injectMu.Lock()
	defer i.r.injectMu.Unlock()
	if i.r.closed {
		return fmt.Errorf("x11 connection is closed")
	}

	dirty := false
	for _, event := range events {
		if event.Type != autoclicker.EventTypeKey {
			continue
		}
		button, ok := codeToXButton(event.Code)
		if !ok {
			continue
		}

		var eventType byte
		switch event.Value {
		case autoclicker.KeyPressed:
			eventType = xproto.ButtonPress
		case autoclicker.KeyReleased:
			eventType = xproto.ButtonRelease
		default:
			continue
		}

		if err := xtest.FakeInputChecked(
			i.r.conn,
			eventType,
			button,
			xproto.TimeCurrentTime,
			i.r.rootWin,
			0,
			0,
			0,
		).Check(); err != nil {
			return err
		}
		dirty = true
	}

	if dirty {
		i.r.conn.Sync()
	}
	return nil
}

func (i *x11Injector) Close() error {
	return nil
}

func NewRuntime(cfg RuntimeConfig, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, err
	}
	keybind.Initialize(xu)

	r := &Runtime{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	if err := r.grabHotkeys(cfg.Hotkeys); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runtime) Injector() autoclicker.Injector {
	return &x11Injector{r: r}
}

func (r *Runtime) Start(sink autoclicker.EventSink) error {
	if sink == nil {
		return fmt.Errorf("event sink is nil")
	}
	r.startOnce.Do(func() {
		r.started = true
		go r.eventLoop(sink)
	})
	return nil
}

// Stop releases the key grabs and closes the connection.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.ungrabAll()

		r.injectMu.Lock()
		r.closed = true
		r.conn.Close()
		r.injectMu.Unlock()

		if r.started {
			<-r.doneCh
		}
		r.logger.Info("Released hotkeys", "backend", "x11")
	})
}

func (r *Runtime) eventLoop(sink autoclicker.EventSink) {
	defer close(r.doneCh)

	for {
		event, xerr := r.conn.WaitForEvent()
		if xerr != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
			r.logger.Warn("X11 event error", "err", xerr)
			continue
		}
		if event == nil {
			return
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			r.forward(sink, ev.Detail, autoclicker.KeyPressed)
		case xproto.KeyReleaseEvent:
			r.forward(sink, ev.Detail, autoclicker.KeyReleased)
		}
	}
}

func (r *Runtime) forward(sink autoclicker.EventSink, key xproto.Keycode, value int32) {
	if code, ok := r.keyToCode[key]; ok {
		sink.HandleEvent(sourceName, autoclicker.Event{Type: autoclicker.EventTypeKey, Code: code, Value: value})
	}
}

// grabHotkeys grabs every keycode bound to F4 or F5 on the root window,
// under any modifier state.
func (r *Runtime) grabHotkeys(hotkeys autoclicker.Hotkeys) error {
	r.keyToCode = make(map[xproto.Keycode]uint16)
	for _, code := range hotkeys.Codes() {
		keycodes, err := r.resolveKeycodes(code)
		if err != nil {
			return err
		}
		for _, key := range keycodes {
			if existing, ok := r.keyToCode[key]; ok && existing != code {
				return fmt.Errorf("start and stop hotkeys resolve to the same X11 keycode")
			}
			r.keyToCode[key] = code
		}
	}

	for key := range r.keyToCode {
		err := xproto.GrabKeyChecked(r.conn, false, r.rootWin, xproto.ModMaskAny, key,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
		if err != nil {
			r.ungrabAll()
			return fmt.Errorf("failed to grab hotkeys (another program may own them): %w", err)
		}
		r.grabbedKeys = append(r.grabbedKeys, key)
	}
	return nil
}

func (r *Runtime) ungrabAll() {
	for _, key := range r.grabbedKeys {
		xproto.UngrabKey(r.conn, key, r.rootWin, xproto.ModMaskAny)
	}
	r.grabbedKeys = nil
}

func (r *Runtime) resolveKeycodes(code uint16) ([]xproto.Keycode, error) {
	keyName, ok := linuxinput.FunctionKeyName(code)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 hotkey %s", linuxinput.FormatCodeName(code))
	}

	keycodes := keybind.StrToKeycodes(r.xu, keyName)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", keyName)
	}
	return keycodes, nil
}

func codeToXButton(code uint16) (byte, bool) {
	switch code {
	case autoclicker.LeftButtonCode:
		return xproto.ButtonIndex1, true
	case autoclicker.RightButtonCode:
		return xproto.ButtonIndex3, true
	default:
		return 0, false
	}
}
