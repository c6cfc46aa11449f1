//go:build !darwin && !windows

package hotkey

import "golang.design/x/hotkey"

const (
	modCtrl = hotkey.ModCtrl
	modAlt  = hotkey.Mod1

	keyRight = hotkey.KeyRight
	keyUp    = hotkey.KeyUp
)

func HasAccessibility() bool {
	return true
}
