package tracker

import "github.com/gen2brain/beeep"

// DesktopNotifier sends desktop notifications and a short audio cue through
// the operating system. Both are best-effort.
type DesktopNotifier struct {
	// Icon is an optional path to the notification icon.
	Icon string

	// Silent disables the audio cue.
	Silent bool
}

func (d *DesktopNotifier) Available() bool { return true }

func (d *DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, d.Icon)
}

func (d *DesktopNotifier) Beep() error {
	if d.Silent {
		return nil
	}

	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
