//go:build windows

package wininput

import (
	"testing"

	"hotkeyclicker/internal/core/autoclicker"
)

func TestButtonFlags(t *testing.T) {
	tests := []struct {
		code  uint16
		value int32
		flags uint32
		ok    bool
	}{
		{code: CodeBTNLeft, value: autoclicker.KeyPressed, flags: mouseeventfLeftDown, ok: true},
		{code: CodeBTNLeft, value: autoclicker.KeyReleased, flags: mouseeventfLeftUp, ok: true},
		{code: CodeBTNRight, value: autoclicker.KeyPressed, flags: mouseeventfRightDown, ok: true},
		{code: CodeBTNRight, value: autoclicker.KeyReleased, flags: mouseeventfRightUp, ok: true},
		{code: autoclicker.KeyF4Code, value: autoclicker.KeyPressed},
	}

	for _, tc := range tests {
		flags, ok := buttonFlags(tc.code, tc.value)
		if flags != tc.flags || ok != tc.ok {
			t.Fatalf("buttonFlags(%#x, %d)=%#x,%v, want %#x,%v", tc.code, tc.value, flags, ok, tc.flags, tc.ok)
		}
	}
}
