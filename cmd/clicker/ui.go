package main

import (
	"errors"
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hotkeyclicker/internal/settings"
)

type clickerTheme struct {
	base fyne.Theme
}

func newClickerTheme() fyne.Theme {
	return &clickerTheme{base: theme.DarkTheme()}
}

func (t *clickerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x0d, G: 0x10, B: 0x14, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1d, G: 0x23, B: 0x2c, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x13, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2b, G: 0x33, B: 0x40, A: 0xff}
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xff, G: 0x66, B: 0x66, A: 0xff}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0xff, G: 0x7a, B: 0x7a, A: 0x66}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 0xf2, G: 0xf4, B: 0xf8, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *clickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *clickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *clickerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding, theme.SizeNameInputRadius:
		return 8
	}
	return t.base.Size(name)
}

func runUI(a *clickerApp) error {
	fApp := app.New()
	fApp.Settings().SetTheme(newClickerTheme())

	window := fApp.NewWindow("Auto Clicker")
	window.Resize(fyne.NewSize(460, 300))
	window.CenterOnScreen()

	current := a.engine.Settings()

	rateEntry := widget.NewEntry()
	rateEntry.SetText(formatRate(current.CPS))

	buttonSelect := widget.NewSelect(settings.ButtonLabels(), nil)
	buttonSelect.SetSelected(settings.ButtonLabel(current.Button))

	statusLabel := widget.NewLabel("")
	statusLabel.TextStyle = fyne.TextStyle{Bold: true}

	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))

	// refresh runs on the fyne goroutine only.
	refresh := func() {
		state := a.engine.State()
		statusLabel.SetText(statusLine(state))
		switch {
		case state.Err != nil:
			errorText.Text = "Clicking stopped: " + errorMessage(state.Err)
		case a.backendErr != nil:
			errorText.Text = errorMessage(a.backendErr)
		default:
			errorText.Text = ""
		}
		errorText.Refresh()
	}

	saveBtn := widget.NewButton("Save settings", func() {
		err := a.saveSettings(rateEntry.Text, buttonSelect.Selected)
		if isInputError(err) {
			dialog.ShowError(errors.New(errorMessage(err)), window)
			return
		}
		rateEntry.SetText(formatRate(a.engine.Settings().CPS))
		refresh()
		if err != nil {
			dialog.ShowError(err, window)
			return
		}
		dialog.ShowInformation("Settings saved", statusLine(a.engine.State()), window)
	})
	saveBtn.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Clicks per second", rateEntry),
		widget.NewFormItem("Mouse button", buttonSelect),
	)

	help := widget.NewLabel(hotkeyHelp(a.hotkeys, hotkeyName))
	help.Wrapping = fyne.TextWrapWord

	window.SetContent(container.NewPadded(container.NewVBox(
		form,
		saveBtn,
		widget.NewSeparator(),
		statusLabel,
		errorText,
		help,
	)))
	refresh()

	// Hotkeys and the click worker report through Changes; widgets are only
	// touched from fyne.Do.
	go func() {
		for range a.engine.Changes() {
			fyne.Do(refresh)
		}
	}()

	quit := a.quitFunc(fApp.Quit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go quitOnSignal(sigCh, fyne.Do, quit)

	window.SetCloseIntercept(quit)
	window.ShowAndRun()
	a.shutdown()
	return nil
}
