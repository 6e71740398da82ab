package wininput

import "strconv"

const (
	CodeBTNLeft  uint16 = 0x110
	CodeBTNRight uint16 = 0x111
)

const (
	vkF1  uint32 = 0x70
	vkF2  uint32 = 0x71
	vkF3  uint32 = 0x72
	vkF4  uint32 = 0x73
	vkF5  uint32 = 0x74
	vkF6  uint32 = 0x75
	vkF7  uint32 = 0x76
	vkF8  uint32 = 0x77
	vkF9  uint32 = 0x78
	vkF10 uint32 = 0x79
	vkF11 uint32 = 0x7A
	vkF12 uint32 = 0x7B
)

// Function keys in evdev numbering, which the click engine uses for hotkeys.
var functionKeys = []struct {
	vk   uint32
	code uint16
	name string
}{
	{vk: vkF1, code: 59, name: "KEY_F1"},
	{vk: vkF2, code: 60, name: "KEY_F2"},
	{vk: vkF3, code: 61, name: "KEY_F3"},
	{vk: vkF4, code: 62, name: "KEY_F4"},
	{vk: vkF5, code: 63, name: "KEY_F5"},
	{vk: vkF6, code: 64, name: "KEY_F6"},
	{vk: vkF7, code: 65, name: "KEY_F7"},
	{vk: vkF8, code: 66, name: "KEY_F8"},
	{vk: vkF9, code: 67, name: "KEY_F9"},
	{vk: vkF10, code: 68, name: "KEY_F10"},
	{vk: vkF11, code: 87, name: "KEY_F11"},
	{vk: vkF12, code: 88, name: "KEY_F12"},
}

func CodeToVK(code uint16) (uint32, bool) {
	for _, key := range functionKeys {
		if key.code == code {
			return key.vk, true
		}
	}
	return 0, false
}

func CodeFromVK(vk uint32) (uint16, bool) {
	for _, key := range functionKeys {
		if key.vk == vk {
			return key.code, true
		}
	}
	return 0, false
}

func FormatCodeName(code uint16) string {
	switch code {
	case CodeBTNLeft:
		return "BTN_LEFT"
	case CodeBTNRight:
		return "BTN_RIGHT"
	}
	for _, key := range functionKeys {
		if key.code == code {
			return key.name
		}
	}
	return strconv.Itoa(int(code))
}
