//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

const virtualDeviceName = "hotkeyclicker"

// OpenHotkeySources opens every physical input device that can emit at least
// one of the given key codes.
func OpenHotkeySources(codes ...uint16) ([]*evdev.InputDevice, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]*evdev.InputDevice, 0, len(paths))
	permissionDenied := false
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			if os.IsPermission(err) {
				permissionDenied = true
			}
			continue
		}

		name := path.Name
		if actualName, nameErr := dev.Name(); nameErr == nil && actualName != "" {
			name = actualName
		}
		if deviceIsVirtual(dev, name) || !deviceSupportsAnyCode(dev, codes) {
			_ = dev.Close()
			continue
		}
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		if permissionDenied {
			return nil, fmt.Errorf("no readable keyboard exposes %s: %w", describeCodes(codes), os.ErrPermission)
		}
		return nil, fmt.Errorf("no input device exposes %s", describeCodes(codes))
	}
	return devices, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func deviceSupportsAnyCode(device *evdev.InputDevice, codes []uint16) bool {
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		for _, code := range codes {
			if c == evdev.EvCode(code) {
				return true
			}
		}
	}
	return false
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool", virtualDeviceName} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func describeCodes(codes []uint16) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, FormatCodeName(code))
	}
	return strings.Join(names, "/")
}
