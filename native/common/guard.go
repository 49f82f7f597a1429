package common

import "errors"

// ErrModulePaused is returned by Guard when the named subsystem is switched
// off. Admin-only drain paths skip the guard so in-flight state can still be
// unwound during a pause.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the owner-managed running flags consulted by user-facing
// entry points.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view or empty module
// name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
