package downloaders

import (
	"context"
	"log/slog"

	"github.com/lrstanley/go-ytdlp"
)

// YtDlpFetcher drives the yt-dlp found on PATH through go-ytdlp.
type YtDlpFetcher struct{}

func NewYtDlpFetcher() *YtDlpFetcher { return &YtDlpFetcher{} }

func (YtDlpFetcher) Fetch(ctx context.Context, url, path string) error {
	slog.Info("requesting download", slog.String("url", url), slog.String("path", path))

	_, err := ytdlp.New().
		NoPlaylist().
		NoProgress().
		Quiet().
		Output(escapeOutput(path)).
		Run(ctx, "--", url)

	return err
}

// NewFetcher picks the go-ytdlp binding for the stock executable and the exec
// runner for any other path.
func NewFetcher(executable string) Fetcher {
	if executable == "" || executable == "yt-dlp" {
		return NewYtDlpFetcher()
	}
	return NewExecFetcher(executable)
}
