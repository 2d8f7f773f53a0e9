// Package cli runs a single search, and optionally a download, from the
// terminal and prints the status lines as they arrive.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/status"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
)

type Options struct {
	Broadcaster string
	From        string
	To          string
	Folder      string
	Download    bool
	Play        bool
}

type Runner interface {
	Search(ctx context.Context, req pipeline.SearchRequest) ([]twitch.Clip, error)
	Download(ctx context.Context, req pipeline.DownloadRequest) ([]string, error)
}

type Events interface {
	Subscribe() (<-chan status.Event, func())
}

func Run(ctx context.Context, p Runner, events Events, out io.Writer, opts Options) error {
	ch, unsubscribe := events.Subscribe()

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range ch {
			if e.Type == status.TopicStatus {
				fmt.Fprintln(out, e.Message)
			}
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	clips, err := p.Search(ctx, pipeline.SearchRequest{
		Broadcaster: opts.Broadcaster,
		From:        opts.From,
		To:          opts.To,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range clips {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.CreatedAt, c.Filename, c.URL)
	}
	tw.Flush()

	if !opts.Download && !opts.Play {
		return nil
	}

	_, err = p.Download(ctx, pipeline.DownloadRequest{
		Clips:  clips,
		Folder: opts.Folder,
		Play:   opts.Play,
	})
	return err
}
