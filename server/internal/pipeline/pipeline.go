// Package pipeline chains the clip search, naming, download and playback
// steps the way both the HTTP API and the terminal mode run them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcopiovanello/twitch-clip-dl/server/internal/downloaders"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

var (
	ErrNoBroadcaster = errors.New("broadcaster cannot be empty")
	ErrNoFolder      = errors.New("download folder is not set")
	ErrNoClips       = errors.New("no clips selected for download")
)

type UserSettings interface {
	User() settings.UserConfig
}

type ClipSource interface {
	ResolveBroadcaster(ctx context.Context, name string) (string, error)
	SearchClips(ctx context.Context, broadcasterID, from, to string) ([]twitch.Clip, error)
}

type Namer interface {
	FormatAll(ctx context.Context, clips []twitch.Clip, tmpl string) ([]twitch.Clip, error)
}

type Downloader interface {
	DownloadAll(ctx context.Context, clips []twitch.Clip, folder string, status downloaders.StatusFunc) []string
}

type Player interface {
	IsAvailable() bool
	Launch(paths []string, status func(string)) error
}

type SearchRequest struct {
	// empty means the default broadcaster of the user settings
	Broadcaster string `json:"broadcaster"`
	From        string `json:"from"`
	To          string `json:"to"`
	// overrides the saved file name template
	Template string `json:"template,omitempty"`
}

type DownloadRequest struct {
	Clips  []twitch.Clip `json:"clips"`
	Folder string        `json:"folder,omitempty"`
	Play   bool          `json:"play"`
}

type Pipeline struct {
	settings   UserSettings
	clips      ClipSource
	namer      Namer
	downloader Downloader
	player     Player
	status     func(string)
}

func New(
	settings UserSettings,
	clips ClipSource,
	namer Namer,
	downloader Downloader,
	player Player,
	status func(string),
) *Pipeline {
	if status == nil {
		status = func(string) {}
	}
	return &Pipeline{
		settings:   settings,
		clips:      clips,
		namer:      namer,
		downloader: downloader,
		player:     player,
		status:     status,
	}
}

func (p *Pipeline) fail(err error) error {
	p.status("Error: " + err.Error())
	return err
}

// Search returns the named clips of a broadcaster created in the range.
func (p *Pipeline) Search(ctx context.Context, req SearchRequest) ([]twitch.Clip, error) {
	user := p.settings.User()

	name := strings.TrimSpace(req.Broadcaster)
	if name == "" {
		name = user.DefaultBroadcasterName
	}
	if name == "" {
		return nil, p.fail(ErrNoBroadcaster)
	}

	tmpl := req.Template
	if tmpl == "" {
		tmpl = user.FilenameTemplate
	}

	id, err := p.clips.ResolveBroadcaster(ctx, name)
	if err != nil {
		return nil, p.fail(err)
	}
	p.status("Broadcaster ID found")

	clips, err := p.clips.SearchClips(ctx, id, req.From, req.To)
	if err != nil {
		return nil, p.fail(err)
	}

	named, err := p.namer.FormatAll(ctx, clips, tmpl)
	if err != nil {
		return nil, p.fail(err)
	}

	p.status(fmt.Sprintf("%d clips found.", len(named)))
	return named, nil
}

// Download fetches the clips and, when asked, opens the results in the player.
func (p *Pipeline) Download(ctx context.Context, req DownloadRequest) ([]string, error) {
	folder := strings.TrimSpace(req.Folder)
	if folder == "" {
		folder = p.settings.User().DownloadFolder
	}
	if folder == "" {
		return nil, p.fail(ErrNoFolder)
	}
	if len(req.Clips) == 0 {
		return nil, p.fail(ErrNoClips)
	}

	paths := p.downloader.DownloadAll(ctx, req.Clips, folder, p.status)
	p.status("Download completed.")

	if req.Play {
		p.play(paths)
	}

	return paths, nil
}

// play never fails the download it follows.
func (p *Pipeline) play(paths []string) {
	if p.player == nil || !p.player.IsAvailable() {
		p.status("Error: VLC is not available.")
		return
	}
	if err := p.player.Launch(paths, p.status); err != nil {
		p.status("Error: " + err.Error())
	}
}
