// Package player opens downloaded clips in VLC.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrLaunchFailed   = errors.New("failed to launch player")
	ErrInvalidPath    = errors.New("not a playable file")
)

// Launcher probes for the player and spawns it detached from this process.
type Launcher struct {
	// explicit executable, overrides the platform default
	path string
}

func NewLauncher(path string) *Launcher {
	return &Launcher{path: path}
}

// Executable returns the player path, or false when it cannot be found.
func (l *Launcher) Executable() (string, bool) {
	candidate := l.path
	if candidate == "" {
		candidate = defaultPlayer
	}

	p, err := exec.LookPath(candidate)
	if err != nil {
		return "", false
	}
	return p, true
}

func (l *Launcher) IsAvailable() bool {
	_, ok := l.Executable()
	return ok
}

// Launch opens every path in one player instance. An empty list only reports
// that there is nothing to play.
func (l *Launcher) Launch(paths []string, status func(string)) error {
	if status == nil {
		status = func(string) {}
	}

	if len(paths) == 0 {
		status("Info: No clips available to play.")
		return nil
	}

	exe, ok := l.Executable()
	if !ok {
		return ErrPlayerNotFound
	}

	files, err := playable(localPaths(paths))
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, files...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}

	slog.Info("player started", slog.Int("pid", cmd.Process.Pid), slog.Int("clips", len(paths)))
	status(fmt.Sprintf("Info: Opening %d clips in VLC.", len(paths)))

	// reap the child without tying its lifetime to ours
	go cmd.Wait()

	return nil
}

// playable resolves every path to an absolute regular file, so no argument
// can be read by the player as an option.
func playable(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPath, p, err)
		}

		fi, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPath, p, err)
		}
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, p)
		}

		out = append(out, abs)
	}

	return out, nil
}
