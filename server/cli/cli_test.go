package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/status"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	hub       *status.Hub
	searchErr error
	download  *pipeline.DownloadRequest
}

func (f *fakeRunner) Search(_ context.Context, req pipeline.SearchRequest) ([]twitch.Clip, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.hub.Status("1 clips found.")
	return []twitch.Clip{{ID: "c1", URL: "https://clips.twitch.tv/c1", Filename: "a.mp4", CreatedAt: "2024-01-01T00:00:00Z"}}, nil
}

func (f *fakeRunner) Download(_ context.Context, req pipeline.DownloadRequest) ([]string, error) {
	f.download = &req
	f.hub.Status("Download completed.")
	return []string{"/clips/a.mp4"}, nil
}

// syncBuffer is written by the printer goroutine and the caller.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestSearchOnly(t *testing.T) {
	hub := status.NewHub()
	r := &fakeRunner{hub: hub}
	var out syncBuffer

	require.NoError(t, Run(context.Background(), r, hub, &out, Options{Broadcaster: "exampleuser"}))

	assert.Nil(t, r.download)
	assert.Contains(t, out.String(), "1 clips found.")
	assert.Contains(t, out.String(), "a.mp4")
	assert.Zero(t, hub.Listeners())
}

func TestSearchAndDownload(t *testing.T) {
	hub := status.NewHub()
	r := &fakeRunner{hub: hub}
	var out syncBuffer

	require.NoError(t, Run(context.Background(), r, hub, &out, Options{Download: true, Play: true, Folder: "/clips"}))

	require.NotNil(t, r.download)
	assert.Len(t, r.download.Clips, 1)
	assert.True(t, r.download.Play)
	assert.Equal(t, "/clips", r.download.Folder)
	assert.Contains(t, out.String(), "Download completed.")
}

func TestSearchFailure(t *testing.T) {
	hub := status.NewHub()
	r := &fakeRunner{hub: hub, searchErr: twitch.ErrUserNotFound}

	err := Run(context.Background(), r, hub, &syncBuffer{}, Options{})
	assert.True(t, errors.Is(err, twitch.ErrUserNotFound))
}
