package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/downloaders"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/pipeline"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/queue"
	"github.com/marcopiovanello/twitch-clip-dl/server/naming"
	"github.com/marcopiovanello/twitch-clip-dl/server/player"
	"github.com/marcopiovanello/twitch-clip-dl/server/settings"
	"github.com/marcopiovanello/twitch-clip-dl/server/twitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source struct{}

func (source) ResolveBroadcaster(_ context.Context, name string) (string, error) {
	if name == "exampleuser" {
		return "12345", nil
	}
	return "", fmt.Errorf("%w: user '%s' not found", twitch.ErrUserNotFound, name)
}

func (source) SearchClips(_ context.Context, id, from, to string) ([]twitch.Clip, error) {
	return []twitch.Clip{{ID: "c1", URL: "https://clips.twitch.tv/c1", Title: "Ace", CreatedAt: "2024-01-01T00:00:00Z"}}, nil
}

type noGames struct{}

func (noGames) Resolve(context.Context, string) string { return twitch.UnknownGame }

type downloader struct{}

func (downloader) DownloadAll(_ context.Context, clips []twitch.Clip, folder string, _ downloaders.StatusFunc) []string {
	out := []string{}
	for _, c := range clips {
		out = append(out, filepath.Join(folder, c.Filename))
	}
	return out
}

func newRouter(t *testing.T) (http.Handler, *settings.Store) {
	t.Helper()

	store := settings.NewStore(filepath.Join(t.TempDir(), "config.json"))
	store.Load()

	mdb := kv.NewStore()
	mq, err := queue.NewMessageQueue(mdb, nil, 2)
	require.NoError(t, err)
	mq.SetupConsumers()
	t.Cleanup(mq.Stop)

	launcher := player.NewLauncher(filepath.Join(t.TempDir(), "missing-vlc"))

	args := &ContainerArgs{
		Settings: store,
		MDB:      mdb,
		MQ:       mq,
		Pipeline: pipeline.New(store, source{}, naming.NewFormatter(noGames{}), downloader{}, launcher, nil),
		Player:   launcher,
	}

	h := &Handler{service: NewService(args)}
	r := chi.NewRouter()
	r.Route("/api/v1", h.routes)

	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestSettingsFirstRun(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view SettingsView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.True(t, view.FirstRun)
	assert.Equal(t, settings.DefaultTemplate, view.User.FilenameTemplate)
	assert.Len(t, view.Schema, len(naming.Schema))
}

func TestSaveUser(t *testing.T) {
	r, store := newRouter(t)

	rec := do(t, r, http.MethodPut, "/api/v1/settings/user", settings.UserConfig{
		DefaultBroadcasterName: "exampleuser",
		DownloadFolder:         "/clips",
		FilenameTemplate:       "{clip_views}",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/api/v1/settings/user", settings.UserConfig{
		DefaultBroadcasterName: "exampleuser",
		DownloadFolder:         "/clips",
		FilenameTemplate:       "{clip_title}",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/clips", store.User().DownloadFolder)
}

func waitTask(t *testing.T, r http.Handler, id string) kv.Task {
	t.Helper()

	var task kv.Task
	require.Eventually(t, func() bool {
		rec := do(t, r, http.MethodGet, "/api/v1/tasks/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		task = kv.Task{}
		json.NewDecoder(rec.Body).Decode(&task)
		return task.Done()
	}, 5*time.Second, 10*time.Millisecond)

	return task
}

func TestSearchTask(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/clips/search", pipeline.SearchRequest{
		Broadcaster: "exampleuser",
		From:        "2024-01-01",
		To:          "2024-01-31",
		Template:    "{clip_title}",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp taskResp
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	task := waitTask(t, r, resp.ID)
	assert.Equal(t, kv.StateCompleted, task.State)

	clips, _ := json.Marshal(task.Result)
	assert.Contains(t, string(clips), `"filename":"Ace.mp4"`)
}

func TestSearchTaskFailure(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/clips/search", pipeline.SearchRequest{Broadcaster: "nobody"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp taskResp
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	task := waitTask(t, r, resp.ID)
	assert.Equal(t, kv.StateFailed, task.State)
	assert.Contains(t, task.Error, "user 'nobody' not found")
}

func TestDownloadTask(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/clips/download", pipeline.DownloadRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/v1/clips/download", pipeline.DownloadRequest{
		Clips:  []twitch.Clip{{ID: "c1", URL: "u", Filename: "a.mp4"}},
		Folder: "/clips",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp taskResp
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	task := waitTask(t, r, resp.ID)
	assert.Equal(t, kv.StateCompleted, task.State)
	assert.Equal(t, []any{filepath.Join("/clips", "a.mp4")}, task.Result)
}

func TestUnknownTask(t *testing.T) {
	r, _ := newRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/tasks/nope", nil).Code)
}

func TestPlayer(t *testing.T) {
	r, _ := newRouter(t)

	rec := do(t, r, http.MethodGet, "/api/v1/player", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info PlayerInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.False(t, info.Available)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/v1/player/play", playReq{}).Code)
	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPost, "/api/v1/player/play", playReq{Paths: []string{"a.mp4"}}).Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{kv.ErrTaskNotFound, http.StatusNotFound},
		{settings.ErrInvalidUser, http.StatusBadRequest},
		{&naming.TemplateError{ClipID: "c", Err: naming.ErrTemplate}, http.StatusBadRequest},
		{player.ErrPlayerNotFound, http.StatusConflict},
		{twitch.ErrUserNotFound, http.StatusNotFound},
		{twitch.ErrMissingCredentials, http.StatusBadRequest},
		{twitch.ErrRequestFailed, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatus(tt.err), tt.err.Error())
	}
}
