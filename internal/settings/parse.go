package settings

import (
	"errors"
	"strconv"
	"strings"

	"hotkeyclicker/internal/core/autoclicker"
)

var (
	ErrInvalidRate   = errors.New("CPS must be a number greater than 0")
	ErrInvalidButton = errors.New("mouse button must be left or right")
)

var buttonLabels = []struct {
	button autoclicker.Button
	label  string
}{
	{button: autoclicker.ButtonLeft, label: "Left click"},
	{button: autoclicker.ButtonRight, label: "Right click"},
}

// ParseRate reads a clicks-per-second value typed by the user. Both "." and
// "," work as the decimal separator.
func ParseRate(text string) (float64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if raw == "" {
		return 0, ErrInvalidRate
	}
	cps, err := strconv.ParseFloat(raw, 64)
	if err != nil || !validRate(cps) {
		return 0, ErrInvalidRate
	}
	return cps, nil
}

// ParseButton accepts a config value ("left") or a UI label ("Left click").
func ParseButton(text string) (autoclicker.Button, error) {
	value := strings.TrimSpace(text)
	for _, entry := range buttonLabels {
		if strings.EqualFold(value, entry.label) {
			return entry.button, nil
		}
	}
	button, err := autoclicker.ParseButton(value)
	if err != nil {
		return "", ErrInvalidButton
	}
	return button, nil
}

func ButtonLabel(button autoclicker.Button) string {
	for _, entry := range buttonLabels {
		if entry.button == button {
			return entry.label
		}
	}
	return button.String()
}

func ButtonLabels() []string {
	labels := make([]string, 0, len(buttonLabels))
	for _, entry := range buttonLabels {
		labels = append(labels, entry.label)
	}
	return labels
}

// ParseForm validates the two settings fields together so nothing changes
// unless both are valid.
func ParseForm(rateText, buttonText string) (autoclicker.Settings, error) {
	cps, err := ParseRate(rateText)
	if err != nil {
		return autoclicker.Settings{}, err
	}
	button, err := ParseButton(buttonText)
	if err != nil {
		return autoclicker.Settings{}, err
	}
	return autoclicker.Settings{CPS: cps, Button: button}, nil
}
