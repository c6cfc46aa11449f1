// Package hotkey registers optional global shortcuts that drive the backdrop
// engine from anywhere: next image and pause/resume.
package hotkey

import (
	"time"

	"golang.design/x/hotkey"

	"github.com/dovenav/dove/util/log"
)

// Control is the subset of the engine the shortcuts drive.
type Control interface {
	RequestSwap()
	TogglePaused() bool
}

// StartListeners registers the global hotkey listeners. Registration
// failures are logged and skipped so one occupied chord does not take the
// others down.
func StartListeners(ctrl Control) {
	if !HasAccessibility() {
		log.Printf("Global hotkeys unavailable: accessibility permission not granted")
		return
	}

	// Ctrl + Alt + Right Arrow (Next)
	hkNext := hotkey.New([]hotkey.Modifier{modCtrl, modAlt}, keyRight)

	// Ctrl + Alt + Up Arrow (Pause/Resume)
	hkPause := hotkey.New([]hotkey.Modifier{modCtrl, modAlt}, keyUp)

	// Helper to register and listen
	registerAndListen := func(hk *hotkey.Hotkey, name string, action func()) {
		if err := hk.Register(); err != nil {
			log.Printf("Failed to register hotkey %s: %v", name, err)
			return
		}
		log.Printf("Registered hotkey: %s", name)

		go func() {
			for range hk.Keydown() {
				log.Debugf("Hotkey pressed: %s", name)
				action()
				// Debounce key repeat
				time.Sleep(200 * time.Millisecond)
			}
		}()
	}

	registerAndListen(hkNext, "Next Backdrop", func() {
		ctrl.RequestSwap()
	})

	registerAndListen(hkPause, "Pause/Resume Rotation", func() {
		if ctrl.TogglePaused() {
			log.Printf("Backdrop rotation paused")
		} else {
			log.Printf("Backdrop rotation resumed")
		}
	})
}
