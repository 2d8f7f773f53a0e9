package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/queue"
	"github.com/marcopiovanello/twitch-clip-dl/server/naming"
	"github.com/marcopiovanello/twitch-clip-dl/server/player"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
	"github.com/marcopiovanello/twitch-clip-dl/server/updater"
)

type Service struct {
	settings   *settings.Store
	mdb        *kv.Store
	mq         *queue.MessageQueue
	pipeline   *pipeline.Pipeline
	player     *player.Launcher
	status     func(string)
	downloader string
}

func NewService(args *ContainerArgs) *Service {
	status := args.Status
	if status == nil {
		status = func(string) {}
	}
	return &Service{
		settings:   args.Settings,
		mdb:        args.MDB,
		mq:         args.MQ,
		pipeline:   args.Pipeline,
		player:     args.Player,
		status:     status,
		downloader: args.Downloader,
	}
}

type SettingsView struct {
	FirstRun       bool                 `json:"first_run"`
	VersionWarning string               `json:"version_warning,omitempty"`
	ClientID       string               `json:"client_id"`
	TokenExpiresAt time.Time            `json:"token_expires_at"`
	User           settings.UserConfig  `json:"user"`
	Schema         []naming.SchemaToken `json:"schema"`
}

func (s *Service) Settings(ctx context.Context) SettingsView {
	auth := s.settings.Auth()

	return SettingsView{
		FirstRun:       s.settings.FirstRun(),
		VersionWarning: s.settings.VersionWarning(),
		ClientID:       auth.ClientID,
		TokenExpiresAt: auth.ExpiresAt,
		User:           s.settings.User(),
		Schema:         naming.Schema,
	}
}

func (s *Service) SaveUser(ctx context.Context, u settings.UserConfig) error {
	return s.settings.SaveUser(u, naming.Validate)
}

// Search enqueues a clip search and returns the task id.
func (s *Service) Search(ctx context.Context, req pipeline.SearchRequest) (string, error) {
	return s.mq.Publish(queue.KindSearch, func(ctx context.Context) (any, error) {
		return s.pipeline.Search(ctx, req)
	})
}

// Download enqueues a batch download and returns the task id.
func (s *Service) Download(ctx context.Context, req pipeline.DownloadRequest) (string, error) {
	if len(req.Clips) == 0 {
		return "", pipeline.ErrNoClips
	}
	return s.mq.Publish(queue.KindDownload, func(ctx context.Context) (any, error) {
		return s.pipeline.Download(ctx, req)
	})
}

func (s *Service) Task(ctx context.Context, id string) (kv.Task, error) {
	return s.mdb.Get(id)
}

func (s *Service) Tasks(ctx context.Context) []kv.Task {
	return s.mdb.All()
}

type PlayerInfo struct {
	Available  bool   `json:"available"`
	Executable string `json:"executable,omitempty"`
}

func (s *Service) Player(ctx context.Context) PlayerInfo {
	exe, ok := s.player.Executable()
	return PlayerInfo{Available: ok, Executable: exe}
}

func (s *Service) Play(ctx context.Context, paths []string) error {
	return s.player.Launch(paths, s.status)
}

type VersionInfo struct {
	App        string `json:"app"`
	Downloader string `json:"downloader"`
}

func (s *Service) Version(ctx context.Context) (VersionInfo, error) {
	v, err := updater.Version(ctx, s.downloader)
	return VersionInfo{App: settings.AppVersion.String(), Downloader: v}, err
}

func (s *Service) Update(ctx context.Context) (string, error) {
	return updater.UpdateExecutable(ctx, s.downloader)
}

// httpStatus maps the domain errors surfaced by the API to response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, kv.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrInvalidUser),
		errors.Is(err, naming.ErrTemplate),
		errors.Is(err, pipeline.ErrNoClips),
		errors.Is(err, pipeline.ErrNoFolder),
		errors.Is(err, pipeline.ErrNoBroadcaster),
		errors.Is(err, player.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, player.ErrPlayerNotFound):
		return http.StatusConflict
	case errors.Is(err, queue.ErrStopped):
		return http.StatusServiceUnavailable
	}
	return twitch.HTTPStatus(err)
}
