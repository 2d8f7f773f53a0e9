package server

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marcopiovanello/twitch-clip-dl/server/archiver"
	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/downloaders"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/naming"
	"github.com/marcopiovanello/twitch-clip-dl/server/player"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"github.com/marcopiovanello/twitch-clip-dl/server/status"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

// Container holds the services shared by the HTTP server and the terminal
// mode.
type Container struct {
	Settings *settings.Store
	Auth     *twitch.AuthenticationManager
	Client   *twitch.Client
	Games    *twitch.GameResolver
	Hub      *status.Hub
	Player   *player.Launcher
	Pipeline *pipeline.Pipeline
	Archive  *archiver.Archive
	Archiver *archiver.Archiver
}

func NewContainer(conf *config.Config) (*Container, error) {
	store := settings.NewStore(conf.Paths.SettingsPath)

	// a missing or broken document is not fatal, the user is asked to
	// provide credentials and settings before searching
	if err := store.Load(); err != nil {
		slog.Warn("settings not loaded, configure credentials and user settings",
			slog.String("path", store.Path()),
			slog.Any("err", err),
		)
	} else if w := store.VersionWarning(); w != "" {
		slog.Warn(w)
	}

	if err := os.MkdirAll(conf.Paths.LocalDatabasePath, 0755); err != nil {
		return nil, err
	}

	archive, err := archiver.Open(filepath.Join(conf.Paths.LocalDatabasePath, "archive.db"))
	if err != nil {
		return nil, err
	}

	var (
		hub      = status.NewHub()
		auth     = twitch.NewAuthenticationManager(store, conf.Twitch, nil)
		client   = twitch.NewTwitchClient(auth, conf.Twitch.APIURL, nil)
		games    = twitch.NewGameResolver(client)
		launcher = player.NewLauncher(conf.Paths.PlayerPath)
		recorder = archiver.New(archive, conf.AutoArchive)
		orch     = downloaders.NewOrchestrator(downloaders.NewFetcher(conf.Paths.DownloaderPath))
	)

	orch.OnDownloaded = func(clip twitch.Clip, path string) {
		recorder.Publish(archiver.Entry{
			ClipID:      clip.ID,
			Title:       clip.Title,
			Broadcaster: clip.BroadcasterName,
			Path:        path,
		})
	}

	return &Container{
		Settings: store,
		Auth:     auth,
		Client:   client,
		Games:    games,
		Hub:      hub,
		Player:   launcher,
		Pipeline: pipeline.New(store, client, naming.NewFormatter(games), orch, launcher, hub.Status),
		Archive:  archive,
		Archiver: recorder,
	}, nil
}

func (c *Container) Close() error {
	return c.Archive.Close()
}
