package downloaders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	// urls listed here fail after writing a partial file
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url, path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if err := os.WriteFile(path, []byte(url), 0644); err != nil {
		return err
	}
	if f.fail[url] {
		return errors.New("HTTP Error 404")
	}
	return nil
}

type recorder struct {
	lines []string
}

func (r *recorder) status(msg string) { r.lines = append(r.lines, msg) }

func (r *recorder) has(prefix string) bool {
	for _, l := range r.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func clip(id string) twitch.Clip {
	return twitch.Clip{
		ID:       id,
		URL:      "https://clips.twitch.tv/" + id,
		Filename: id + ".mp4",
	}
}

func TestDownloadAllIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{}
	o := NewOrchestrator(f)

	clips := []twitch.Clip{clip("a"), clip("b")}

	first := o.DownloadAll(context.Background(), clips, dir, nil)
	require.Equal(t, []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")}, first)
	require.Len(t, f.calls, 2)

	rec := &recorder{}
	second := o.DownloadAll(context.Background(), clips, dir, rec.status)
	assert.Equal(t, first, second)
	assert.Len(t, f.calls, 2, "existing files are not fetched again")
	assert.True(t, rec.has("Info: Skipping download, file already exists: a.mp4"))
}

func TestDownloadAllIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{fail: map[string]bool{"https://clips.twitch.tv/b": true}}
	o := NewOrchestrator(f)

	rec := &recorder{}
	paths := o.DownloadAll(context.Background(), []twitch.Clip{clip("a"), clip("b"), clip("c")}, dir, rec.status)

	assert.Equal(t, []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "c.mp4")}, paths)
	assert.Len(t, f.calls, 3)
	assert.True(t, rec.has("Error: Failed to download https://clips.twitch.tv/b. HTTP Error 404"))

	_, err := os.Stat(filepath.Join(dir, "b.mp4"))
	assert.True(t, os.IsNotExist(err), "partial file is removed")
}

func TestDownloadAllSkipsClipsWithoutURL(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{}
	o := NewOrchestrator(f)

	broken := clip("x")
	broken.URL = ""

	rec := &recorder{}
	paths := o.DownloadAll(context.Background(), []twitch.Clip{broken, clip("y")}, dir, rec.status)

	assert.Equal(t, []string{filepath.Join(dir, "y.mp4")}, paths)
	assert.Equal(t, []string{"https://clips.twitch.tv/y"}, f.calls)
	assert.True(t, rec.has("Warning: Skipping clip with missing URL: x"))
}

func TestDownloadAllReportsNewDownloads(t *testing.T) {
	dir := t.TempDir()
	o := NewOrchestrator(&fakeFetcher{})

	var archived []string
	o.OnDownloaded = func(c twitch.Clip, path string) { archived = append(archived, c.ID) }

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp4"), nil, 0644))

	rec := &recorder{}
	o.DownloadAll(context.Background(), []twitch.Clip{clip("a"), clip("b")}, dir, rec.status)

	assert.Equal(t, []string{"b"}, archived)
	require.NotEmpty(t, rec.lines)
	assert.Contains(t, rec.lines[0], "free in "+dir)
	assert.True(t, rec.has("Downloading clip: b.mp4"))
}

func TestDownloadAllEmpty(t *testing.T) {
	paths := NewOrchestrator(&fakeFetcher{}).DownloadAll(context.Background(), nil, t.TempDir(), nil)
	assert.NotNil(t, paths)
	assert.Empty(t, paths)
}

func TestArgsSanitizer(t *testing.T) {
	in := []string{"--format", "", "${HOME}", "a && b", "best"}
	assert.Equal(t, []string{"--format", "best"}, argsSanitizer(in))
	assert.Len(t, in, 5)
}

func TestEscapeOutput(t *testing.T) {
	assert.Equal(t, "/tmp/100%% clutch.mp4", escapeOutput("/tmp/100% clutch.mp4"))
}

func TestDownloadAllRejectsUnsafeURLs(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{}
	o := NewOrchestrator(f)

	var clips []twitch.Clip
	for i, u := range []string{
		"--exec=touch /tmp/x",
		"--config-location=/tmp/c",
		"file:///etc/passwd",
		"clips.twitch.tv/a",
		"https://",
	} {
		c := clip(fmt.Sprintf("bad%d", i))
		c.URL = u
		clips = append(clips, c)
	}

	rec := &recorder{}
	paths := o.DownloadAll(context.Background(), append(clips, clip("ok")), dir, rec.status)

	assert.Equal(t, []string{filepath.Join(dir, "ok.mp4")}, paths)
	assert.Equal(t, []string{"https://clips.twitch.tv/ok"}, f.calls)
	assert.True(t, rec.has("Warning: Skipping clip with invalid URL: bad0"))
}

func TestDownloadAllKeepsFilesInsideFolder(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "clips")
	f := &fakeFetcher{}
	o := NewOrchestrator(f)

	var clips []twitch.Clip
	for i, name := range []string{"../escape.mp4", "../../etc/x.mp4", "..", "."} {
		c := clip(fmt.Sprintf("bad%d", i))
		c.Filename = name
		clips = append(clips, c)
	}

	rec := &recorder{}
	paths := o.DownloadAll(context.Background(), append(clips, clip("ok")), dir, rec.status)

	assert.Equal(t, []string{filepath.Join(dir, "ok.mp4")}, paths)
	assert.Len(t, f.calls, 1)
	assert.True(t, rec.has("Warning: Skipping clip with invalid file name: bad0"))

	_, err := os.Stat(filepath.Join(root, "escape.mp4"))
	assert.True(t, os.IsNotExist(err))
}

func TestTargetPath(t *testing.T) {
	path, ok := targetPath("/clips", "sub/a.mp4")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/clips", "sub", "a.mp4"), path)

	_, ok = targetPath("/clips", "../a.mp4")
	assert.False(t, ok)

	path, ok = targetPath("/clips", "..a.mp4")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/clips", "..a.mp4"), path)
}
