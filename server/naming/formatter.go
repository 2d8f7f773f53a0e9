package naming

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

// GameNames resolves a game id to its display name.
type GameNames interface {
	Resolve(ctx context.Context, gameID string) string
}

// TemplateError identifies the clip whose name could not be rendered.
type TemplateError struct {
	ClipID string
	Err    error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("error processing clip %s: %v", e.ClipID, e.Err)
}

func (e *TemplateError) Unwrap() []error { return []error{ErrTemplate, e.Err} }

type Formatter struct {
	games GameNames
}

func NewFormatter(games GameNames) *Formatter {
	return &Formatter{games: games}
}

// Fields extracts the sanitized template values of a clip.
func (f *Formatter) Fields(ctx context.Context, clip twitch.Clip) Fields {
	date, _, _ := strings.Cut(clip.CreatedAt, "T")

	return Fields{
		ClipDate:        date,
		GameName:        Sanitize(f.games.Resolve(ctx, clip.GameID)),
		ClipTitle:       Sanitize(clip.Title),
		ClipCreator:     Sanitize(clip.CreatorName),
		BroadcasterName: Sanitize(clip.BroadcasterName),
	}
}

func (f *Formatter) Format(ctx context.Context, clip twitch.Clip, tmpl string) (string, error) {
	name, err := Render(f.Fields(ctx, clip), tmpl)
	if err != nil {
		return "", &TemplateError{ClipID: clip.ID, Err: err}
	}
	return name, nil
}

// FormatAll assigns Filename to every clip. The input slice is not modified.
func (f *Formatter) FormatAll(ctx context.Context, clips []twitch.Clip, tmpl string) ([]twitch.Clip, error) {
	out := make([]twitch.Clip, len(clips))

	for i, clip := range clips {
		name, err := f.Format(ctx, clip, tmpl)
		if err != nil {
			return nil, err
		}
		clip.Filename = name
		out[i] = clip
	}

	return out, nil
}
