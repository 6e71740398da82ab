package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"hotkeyclicker/internal/core/autoclicker"
	"hotkeyclicker/internal/settings"
)

const clickDown = 10 * time.Millisecond

// inputRuntime is a platform backend: a click injector plus global hotkeys.
type inputRuntime interface {
	Injector() autoclicker.Injector
	Start(sink autoclicker.EventSink) error
	Stop()
}

type runtimeOpener func(keys autoclicker.Hotkeys, logger autoclicker.Logger) (inputRuntime, string, error)

// unavailableInjector stands in when no backend could be opened so the
// window still comes up and reports why clicking does not work.
type unavailableInjector struct {
	err error
}

func (i unavailableInjector) WriteEvents(...autoclicker.Event) error {
	return i.err
}

func (i unavailableInjector) Close() error {
	return nil
}

type clickerApp struct {
	store   *settings.Store
	engine  *autoclicker.Engine
	runtime inputRuntime
	backend string
	hotkeys autoclicker.Hotkeys
	logger  autoclicker.Logger

	// backendErr is set when clicking and hotkeys are unavailable.
	backendErr error

	shutdownOnce sync.Once
}

func newClickerApp(store *settings.Store, open runtimeOpener, logger autoclicker.Logger) (*clickerApp, error) {
	if store == nil {
		return nil, fmt.Errorf("config store is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	a := &clickerApp{
		store:   store,
		hotkeys: autoclicker.DefaultHotkeys,
		logger:  logger,
	}

	var injector autoclicker.Injector
	rt, backend, err := open(a.hotkeys, logger)
	if err != nil {
		a.backendErr = fmt.Errorf("input backend unavailable: %w", err)
		logger.Error("Input backend unavailable", "err", err)
		injector = unavailableInjector{err: a.backendErr}
	} else {
		a.runtime = rt
		a.backend = backend
		injector = rt.Injector()
		logger.Info("Backend", "name", backend)
	}

	engine, err := autoclicker.NewEngine(autoclicker.Config{
		Settings:  store.Settings(),
		ClickDown: clickDown,
	}, injector, logger)
	if err != nil {
		if rt != nil {
			rt.Stop()
		}
		return nil, err
	}
	a.engine = engine

	dispatcher, err := autoclicker.NewHotkeyDispatcher(a.hotkeys, engine, logger)
	if err != nil {
		a.shutdown()
		return nil, err
	}

	if a.runtime != nil {
		if err := a.runtime.Start(dispatcher); err != nil {
			a.backendErr = fmt.Errorf("failed to register hotkeys: %w", err)
			logger.Error("Failed to register hotkeys", "err", err)
			a.runtime.Stop()
			a.runtime = nil
		}
	}
	return a, nil
}

// saveSettings validates the form, persists it and applies it to the engine.
// Invalid input changes nothing. A write failure is still returned after the
// new values are in effect.
func (a *clickerApp) saveSettings(rateText, buttonText string) error {
	next, err := settings.ParseForm(rateText, buttonText)
	if err != nil {
		return err
	}

	saveErr := a.store.Save(next)
	a.engine.Apply(next)
	if saveErr != nil {
		a.logger.Warn("Failed to save config", "path", a.store.Path(), "err", saveErr)
		return fmt.Errorf("settings applied but could not be saved to %s: %w", a.store.Path(), saveErr)
	}
	return nil
}

func isInputError(err error) bool {
	return errors.Is(err, settings.ErrInvalidRate) || errors.Is(err, settings.ErrInvalidButton)
}

// shutdown stops the engine before releasing the hotkeys so no worker
// outlives the window.
func (a *clickerApp) shutdown() {
	a.shutdownOnce.Do(func() {
		if a.engine != nil {
			a.engine.Stop()
			if err := a.engine.Close(); err != nil {
				a.logger.Warn("Failed to close click engine", "err", err)
			}
		}
		if a.runtime != nil {
			a.runtime.Stop()
		}
		a.logger.Info("Shut down")
	})
}

// quitFunc is the window close action: an orderly shutdown, then quitApp.
func (a *clickerApp) quitFunc(quitApp func()) func() {
	return func() {
		a.shutdown()
		quitApp()
	}
}

// quitOnSignal runs quit through dispatch when the first signal arrives.
func quitOnSignal(sigCh <-chan os.Signal, dispatch func(func()), quit func()) {
	if _, ok := <-sigCh; ok {
		dispatch(quit)
	}
}

func statusLine(state autoclicker.State) string {
	status := "stopped"
	if state.Running {
		status = "running"
	}
	return fmt.Sprintf("Status: %s | CPS: %s | Button: %s",
		status,
		formatRate(state.Settings.CPS),
		settings.ButtonLabel(state.Settings.Button),
	)
}

func formatRate(cps float64) string {
	return strconv.FormatFloat(cps, 'f', -1, 64)
}

func hotkeyHelp(keys autoclicker.Hotkeys, name func(uint16) string) string {
	return fmt.Sprintf("%s starts clicking, %s stops it. Both work while the window is in the background.",
		name(keys.Start), name(keys.Stop))
}

func errorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, settings.ErrInvalidRate):
		return settings.ErrInvalidRate.Error()
	case errors.Is(err, settings.ErrInvalidButton):
		return settings.ErrInvalidButton.Error()
	case isPermissionError(err):
		return permissionDeniedHint()
	default:
		return err.Error()
	}
}
