package downloaders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ExecFetcher runs a yt-dlp compatible executable found at a configured path.
type ExecFetcher struct {
	Executable string
	// extra arguments appended after the built-in ones
	Params []string
}

func NewExecFetcher(executable string, params ...string) *ExecFetcher {
	return &ExecFetcher{
		Executable: executable,
		Params:     params,
	}
}

func (e *ExecFetcher) Fetch(ctx context.Context, url, path string) error {
	params := append([]string{
		"--no-playlist",
		"--no-colors",
		"--no-progress",
		"--quiet",
		"-o",
		escapeOutput(path),
	}, argsSanitizer(e.Params)...)

	// the url is never parsed as an option
	params = append(params, "--", url)

	slog.Info("requesting download", slog.String("url", url), slog.Any("params", params))

	cmd := exec.CommandContext(ctx, e.Executable, params...)
	configureProcess(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.Executable, err)
	}

	reason := drainErrors(stderr, url)

	if err := cmd.Wait(); err != nil {
		if reason != "" {
			return errors.Join(err, errors.New(reason))
		}
		return err
	}

	return nil
}
