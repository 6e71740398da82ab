//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"hotkeyclicker/internal/core/autoclicker"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfInjected        = 0x00000010
	llkhfLowerILInjected = 0x00000002

	inputMouse           = 0
	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010
	globalSourceIdentity = "windows-global"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSendInput           = user32.NewProc("SendInput")

	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")

	keyboardHookCallback = syscall.NewCallback(keyboardLLCallback)

	activeRuntime atomic.Pointer[Runtime]
)

type point struct {
	X int32
	Y int32
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

type windowsInjector struct{}

func (i *windowsInjector) WriteEvents(events ...autoclicker.Event) error {
	inputs := make([]input, 0, len(events))
	for _, event := range events {
		if event.Type != autoclicker.EventTypeKey {
			continue
		}
		flags, ok := buttonFlags(event.Code, event.Value)
		if !ok {
			continue
		}
		inputs = append(inputs, input{
			Type: inputMouse,
			Mi:   mouseInput{DwFlags: flags},
		})
	}

	if len(inputs) == 0 {
		return nil
	}

	sent, _, callErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if sent != uintptr(len(inputs)) {
		if callErr != nil && callErr != syscall.Errno(0) {
			return callErr
		}
		return fmt.Errorf("SendInput sent %d of %d inputs", sent, len(inputs))
	}
	return nil
}

func (i *windowsInjector) Close() error {
	return nil
}

func buttonFlags(code uint16, value int32) (uint32, bool) {
	pressed := value != autoclicker.KeyReleased
	switch code {
	case CodeBTNLeft:
		if pressed {
			return mouseeventfLeftDown, true
		}
		return mouseeventfLeftUp, true
	case CodeBTNRight:
		if pressed {
			return mouseeventfRightDown, true
		}
		return mouseeventfRightUp, true
	default:
		return 0, false
	}
}

// Runtime installs a low-level keyboard hook on a dedicated OS thread and
// clicks through SendInput.
type Runtime struct {
	hotkeys autoclicker.Hotkeys
	logger  autoclicker.Logger
	sink    autoclicker.EventSink

	stopOnce sync.Once

	threadID atomic.Uint32
	loopDone chan struct{}
}

func NewRuntime(cfg RuntimeConfig, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	for _, code := range cfg.Hotkeys.Codes() {
		if _, ok := CodeToVK(code); !ok {
			return nil, fmt.Errorf("unsupported hotkey %s", FormatCodeName(code))
		}
	}

	return &Runtime{
		hotkeys: cfg.Hotkeys,
		logger:  logger,
	}, nil
}

func (r *Runtime) Injector() autoclicker.Injector {
	return &windowsInjector{}
}

func (r *Runtime) Start(sink autoclicker.EventSink) error {
	if sink == nil {
		return fmt.Errorf("event sink is nil")
	}
	r.sink = sink
	if !activeRuntime.CompareAndSwap(nil, r) {
		return fmt.Errorf("windows runtime is already active")
	}

	r.loopDone = make(chan struct{})
	ready := make(chan error, 1)
	go r.hookLoop(ready)

	if err := <-ready; err != nil {
		r.Stop()
		return err
	}
	return nil
}

// Stop ends the hook thread's message loop, which unhooks before exiting.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		threadID := r.threadID.Load()
		if threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}

		if r.loopDone != nil {
			<-r.loopDone
		}

		activeRuntime.CompareAndSwap(r, nil)
		r.logger.Info("Released hotkeys", "backend", "windows")
	})
}

func (r *Runtime) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.loopDone)
	defer activeRuntime.CompareAndSwap(r, nil)

	threadID, _, _ := procGetCurrentThreadID.Call()
	r.threadID.Store(uint32(threadID))

	keyboardHook, _, keyboardErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if keyboardHook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", keyboardErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(keyboardHook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			r.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if r := activeRuntime.Load(); r != nil {
			r.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (r *Runtime) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}

	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llkhfInjected != 0 || event.Flags&llkhfLowerILInjected != 0 {
		return
	}

	code, ok := CodeFromVK(event.VkCode)
	if !ok || (code != r.hotkeys.Start && code != r.hotkeys.Stop) {
		return
	}

	var value int32
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
		value = autoclicker.KeyPressed
	case wmKeyUp, wmSysKeyUp:
		value = autoclicker.KeyReleased
	default:
		return
	}

	// The hook must return quickly; engine Start/Stop only flip state.
	r.sink.HandleEvent(globalSourceIdentity, autoclicker.Event{
		Type:  autoclicker.EventTypeKey,
		Code:  code,
		Value: value,
	})
}
