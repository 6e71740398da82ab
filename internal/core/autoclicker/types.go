package autoclicker

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	EventTypeSyn uint16 = 0x00
	EventTypeKey uint16 = 0x01

	SynReportCode   uint16 = 0
	LeftButtonCode  uint16 = 0x110
	RightButtonCode uint16 = 0x111

	KeyF4Code uint16 = 62
	KeyF5Code uint16 = 63
)

// Key event values, matching the kernel's EV_KEY semantics.
const (
	KeyReleased int32 = 0
	KeyPressed  int32 = 1
	KeyRepeated int32 = 2
)

type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Button is the mouse button a click is issued with.
type Button string

const (
	ButtonLeft  Button = "left"
	ButtonRight Button = "right"
)

func ParseButton(value string) (Button, error) {
	switch Button(strings.ToLower(strings.TrimSpace(value))) {
	case ButtonLeft:
		return ButtonLeft, nil
	case ButtonRight:
		return ButtonRight, nil
	default:
		return "", fmt.Errorf("unknown mouse button %q (expected left|right)", value)
	}
}

func (b Button) Valid() bool {
	return b == ButtonLeft || b == ButtonRight
}

// Code returns the evdev button code injectors translate from.
func (b Button) Code() uint16 {
	if b == ButtonRight {
		return RightButtonCode
	}
	return LeftButtonCode
}

func (b Button) String() string {
	return string(b)
}

type Settings struct {
	CPS    float64
	Button Button
}

func DefaultSettings() Settings {
	return Settings{CPS: 10.0, Button: ButtonLeft}
}

// Interval is the pause between two clicks, or zero when CPS is not positive.
// Rates too slow to express as a Duration get the longest Duration.
func (s Settings) Interval() time.Duration {
	if !(s.CPS > 0) {
		return 0
	}
	d := float64(time.Second) / s.CPS
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(d)
}

// State is a consistent snapshot of the engine.
type State struct {
	Running  bool
	Settings Settings
	// Err is the fault that last stopped the engine on its own, cleared by Start.
	Err error
}

type Config struct {
	Settings         Settings
	ClickDown        time.Duration
	PauseInterval    time.Duration
	MaxClickFailures int
}

type Injector interface {
	WriteEvents(events ...Event) error
	Close() error
}

// EventSink receives key events from an input adapter's listener goroutine.
type EventSink interface {
	HandleEvent(source string, event Event) bool
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
