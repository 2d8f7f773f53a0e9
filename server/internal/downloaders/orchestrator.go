package downloaders

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/marcopiovanello/twitch-clip-dl/server/sys"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

// Orchestrator downloads a batch of named clips into a folder. Files that are
// already present are kept, and a failing clip never stops the batch.
type Orchestrator struct {
	fetcher Fetcher

	// OnDownloaded, when set, is called after each newly fetched clip.
	OnDownloaded func(clip twitch.Clip, path string)
}

func NewOrchestrator(fetcher Fetcher) *Orchestrator {
	return &Orchestrator{fetcher: fetcher}
}

// DownloadAll returns the local paths of the clips that exist after the batch,
// in input order.
func (o *Orchestrator) DownloadAll(ctx context.Context, clips []twitch.Clip, folder string, status StatusFunc) []string {
	paths := make([]string, 0, len(clips))

	if err := os.MkdirAll(folder, 0755); err != nil {
		slog.Error("failed to create download folder", slog.String("folder", folder), slog.Any("err", err))
	}

	if report, err := sys.FreeSpaceReport(folder); err == nil {
		status.emit(report)
	}

	for _, clip := range clips {
		name := strings.TrimSpace(clip.Filename)

		if clip.URL == "" {
			slog.Warn("clip without url", slog.String("id", clip.ID))
			status.emit(fmt.Sprintf("Warning: Skipping clip with missing URL: %s", clip.ID))
			continue
		}
		if name == "" {
			slog.Warn("clip without file name", slog.String("id", clip.ID))
			status.emit(fmt.Sprintf("Warning: Skipping clip with missing file name: %s", clip.ID))
			continue
		}

		if !validURL(clip.URL) {
			slog.Warn("clip with invalid url", slog.String("id", clip.ID), slog.String("url", clip.URL))
			status.emit(fmt.Sprintf("Warning: Skipping clip with invalid URL: %s", clip.ID))
			continue
		}

		path, ok := targetPath(folder, name)
		if !ok {
			slog.Warn("clip file name leaves the download folder", slog.String("id", clip.ID), slog.String("name", name))
			status.emit(fmt.Sprintf("Warning: Skipping clip with invalid file name: %s", clip.ID))
			continue
		}

		if _, err := os.Stat(path); err == nil {
			status.emit("Info: Skipping download, file already exists: " + name)
			paths = append(paths, path)
			continue
		}

		status.emit("Downloading clip: " + name)

		if err := o.fetcher.Fetch(ctx, clip.URL, path); err != nil {
			slog.Error("failed to download clip",
				slog.String("id", clip.ID),
				slog.String("url", clip.URL),
				slog.Any("err", err),
			)
			removePartial(path)
			status.emit(fmt.Sprintf("Error: Failed to download %s. %v", clip.URL, err))
			continue
		}

		paths = append(paths, path)

		if o.OnDownloaded != nil {
			o.OnDownloaded(clip, path)
		}
	}

	return paths
}

// removePartial deletes whatever a failed fetch left behind, so the next run
// does not mistake it for a finished download.
func removePartial(path string) {
	for _, p := range []string{path, path + ".part"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove partial download", slog.String("path", p), slog.Any("err", err))
		}
	}
}
