package updater

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = time.Second * 10

var ErrVersionTimeout = errors.New("requesting yt-dlp version took too long")

// UpdateExecutable uses the builtin self-update of yt-dlp.
func UpdateExecutable(ctx context.Context, executable string) (string, error) {
	cmd := exec.CommandContext(ctx, executable, "-U")

	out, err := cmd.CombinedOutput()
	slog.Info("yt-dlp update", slog.String("output", strings.TrimSpace(string(out))))

	return string(out), err
}

// Version returns the output of `yt-dlp --version`.
func Version(ctx context.Context, executable string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, executable, "--version").Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ErrVersionTimeout
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
