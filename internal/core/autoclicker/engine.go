package autoclicker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultPauseInterval    = 100 * time.Millisecond
	DefaultMaxClickFailures = 5
)

var ErrClosed = errors.New("click engine is closed")

// Engine issues synthetic clicks from a single background worker while running.
type Engine struct {
	injector    Injector
	logger      Logger
	clickDown   time.Duration
	pause       time.Duration
	maxFailures int

	mu           sync.Mutex
	settings     Settings
	running      bool
	workerActive bool
	closed       bool
	fault        error

	injectMu sync.Mutex
	held     map[uint16]struct{}

	wakeCh    chan struct{}
	changes   chan struct{}
	workers   sync.WaitGroup
	closeOnce sync.Once
}

func NewEngine(cfg Config, injector Injector, logger Logger) (*Engine, error) {
	if injector == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if cfg.ClickDown < 0 {
		return nil, fmt.Errorf("click down duration must be >= 0")
	}
	if cfg.Settings == (Settings{}) {
		cfg.Settings = DefaultSettings()
	}
	if !cfg.Settings.Button.Valid() {
		return nil, fmt.Errorf("invalid mouse button %q", cfg.Settings.Button)
	}
	if cfg.PauseInterval <= 0 {
		cfg.PauseInterval = DefaultPauseInterval
	}
	if cfg.MaxClickFailures <= 0 {
		cfg.MaxClickFailures = DefaultMaxClickFailures
	}

	return &Engine{
		injector:    injector,
		logger:      logger,
		clickDown:   cfg.ClickDown,
		pause:       cfg.PauseInterval,
		maxFailures: cfg.MaxClickFailures,
		settings:    cfg.Settings,
		held:        make(map[uint16]struct{}),
		wakeCh:      make(chan struct{}, 1),
		changes:     make(chan struct{}, 1),
	}, nil
}

// Start enables clicking. A worker is spawned only when none is alive, so
// repeated or concurrent calls never produce a second click stream.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.fault = nil
	spawn := !e.workerActive
	if spawn {
		e.workerActive = true
		e.workers.Add(1)
	}
	settings := e.settings
	e.mu.Unlock()

	if spawn {
		go e.run()
	}
	e.logger.Info("Clicking started", "cps", settings.CPS, "button", settings.Button)
	e.notify()
	return nil
}

// Stop clears the running flag; the worker exits on its next iteration.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasRunning := e.running
	e.running = false
	e.mu.Unlock()

	if !wasRunning {
		return
	}
	e.signalWake()
	e.logger.Info("Clicking stopped")
	e.notify()
}

func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Running: e.running, Settings: e.settings, Err: e.fault}
}

// Apply replaces the click settings. A running worker picks them up on its
// next iteration without being restarted.
func (e *Engine) Apply(settings Settings) {
	e.mu.Lock()
	e.settings = settings
	e.mu.Unlock()

	e.signalWake()
	e.logger.Info("Settings applied", "cps", settings.CPS, "button", settings.Button)
	e.notify()
}

// Changes delivers a coalesced signal after every state change. It is
// closed by Close.
func (e *Engine) Changes() <-chan struct{} {
	return e.changes
}

// Close stops clicking, waits for the worker, releases any held button and
// closes the injector.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.running = false
		e.mu.Unlock()

		e.signalWake()
		e.workers.Wait()
		e.releaseHeldButtons()

		e.mu.Lock()
		close(e.changes)
		e.mu.Unlock()

		err = e.injector.Close()
	})
	return err
}

func (e *Engine) run() {
	defer e.workers.Done()

	var (
		last     time.Time
		failures int
	)
	for {
		settings, ok := e.nextIteration()
		if !ok {
			return
		}

		if settings.CPS <= 0 {
			e.waitWithWake(e.pause)
			continue
		}

		interval := settings.Interval()
		due := time.Now()
		if !last.IsZero() {
			due = last.Add(interval)
			if wait := time.Until(due); wait > 0 {
				e.waitWithWake(wait)
				continue
			}
			if time.Since(due) > interval {
				due = time.Now()
			}
		}
		last = due

		if err := e.clickOnce(settings.Button, interval); err != nil {
			failures++
			e.logger.Warn("Click failed", "button", settings.Button, "failures", failures, "err", err)
			if failures >= e.maxFailures {
				e.fail(fmt.Errorf("click failed %d times in a row: %w", failures, err))
			}
			continue
		}
		failures = 0
	}
}

// nextIteration snapshots the settings, or retires the worker when stopped.
// Both happen under the same lock Start uses to decide whether to spawn.
func (e *Engine) nextIteration() (Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		e.workerActive = false
		return Settings{}, false
	}
	return e.settings, true
}

func (e *Engine) clickOnce(button Button, interval time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("injector panic: %v", r)
		}
	}()

	code := button.Code()
	if err := e.writeEvents(
		Event{Type: EventTypeKey, Code: code, Value: KeyPressed},
		Event{Type: EventTypeSyn, Code: SynReportCode},
	); err != nil {
		return err
	}

	if hold := min(e.clickDown, interval/2); hold > 0 {
		time.Sleep(hold)
	}

	return e.writeEvents(
		Event{Type: EventTypeKey, Code: code, Value: KeyReleased},
		Event{Type: EventTypeSyn, Code: SynReportCode},
	)
}

func (e *Engine) writeEvents(events ...Event) error {
	e.injectMu.Lock()
	defer e.injectMu.Unlock()

	if err := e.injector.WriteEvents(events...); err != nil {
		return err
	}
	for _, event := range events {
		if event.Type != EventTypeKey {
			continue
		}
		if event.Value == KeyReleased {
			delete(e.held, event.Code)
		} else {
			e.held[event.Code] = struct{}{}
		}
	}
	return nil
}

func (e *Engine) releaseHeldButtons() {
	e.injectMu.Lock()
	codes := make([]uint16, 0, len(e.held))
	for code := range e.held {
		codes = append(codes, code)
	}
	e.injectMu.Unlock()

	for _, code := range codes {
		if err := e.writeEvents(
			Event{Type: EventTypeKey, Code: code, Value: KeyReleased},
			Event{Type: EventTypeSyn, Code: SynReportCode},
		); err != nil {
			e.logger.Warn("Failed to release mouse button", "code", code, "err", err)
		}
	}
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.running = false
	e.fault = err
	e.mu.Unlock()

	e.logger.Error("Clicking stopped after repeated failures", "err", err)
	e.releaseHeldButtons()
	e.notify()
}

func (e *Engine) signalWake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
}

// waitWithWake sleeps for d or until woken; it reports whether it was woken.
func (e *Engine) waitWithWake(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-e.wakeCh:
		return true
	case <-timer.C:
		return false
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.changes <- struct{}{}:
	default:
	}
}
