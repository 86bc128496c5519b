package twelvelabs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlclient "github.com/tanpawarit/multimodal-travel-agent/pkg/twelvelabs"
)

type fakeAPI struct {
	indexes      []tlclient.Index
	videos       map[string][]tlclient.Video
	listErr      map[string]error
	taskStatus   string
	uploadedName string
	uploadedBody []byte
	fromURL      string
	analyzeErr   error
	analyzedID   string
}

func (f *fakeAPI) ListIndexes(context.Context, string) ([]tlclient.Index, error) {
	return f.indexes, nil
}

func (f *fakeAPI) GetOrCreateIndex(_ context.Context, name string) (tlclient.Index, error) {
	return tlclient.Index{ID: "idx-1", IndexName: name}, nil
}

func (f *fakeAPI) ListVideos(_ context.Context, indexID string) ([]tlclient.Video, error) {
	if err := f.listErr[indexID]; err != nil {
		return nil, err
	}
	return f.videos[indexID], nil
}

func (f *fakeAPI) CreateTaskFromURL(_ context.Context, _ string, videoURL string) (tlclient.Task, error) {
	f.fromURL = videoURL
	return tlclient.Task{ID: "task-1"}, nil
}

func (f *fakeAPI) CreateTaskFromFile(_ context.Context, _ string, filename string, video io.Reader) (tlclient.Task, error) {
	f.uploadedName = filename
	raw, err := io.ReadAll(video)
	if err != nil {
		return tlclient.Task{}, err
	}
	f.uploadedBody = raw
	return tlclient.Task{ID: "task-1"}, nil
}

func (f *fakeAPI) WaitForTask(context.Context, string) (tlclient.Task, error) {
	task := tlclient.Task{ID: "task-1", Status: f.taskStatus, VideoID: "vid-1"}
	if f.taskStatus == tlclient.TaskStatusFailed {
		return task, tlclient.ErrTaskFailed
	}
	return task, nil
}

func (f *fakeAPI) Gist(context.Context, string, ...string) (tlclient.Gist, error) {
	return tlclient.Gist{Title: "Night market", Topics: []string{"food"}, Hashtags: []string{"#bangkok"}}, nil
}

func (f *fakeAPI) Analyze(_ context.Context, videoID, _ string, _ float64) (string, error) {
	f.analyzedID = videoID
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return "Street food stalls in Bangkok", nil
}

func TestRunWithoutAPIKey(t *testing.T) {
	t.Parallel()

	tool := New(nil, "", nil)
	resp := tool.Run(context.Background(), Input{Action: ActionListVideos})
	assert.False(t, resp.OK())
	assert.Equal(t, "TL_API_KEY environment variable required", resp.Text())
}

func TestUploadFromFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/trip.mp4", []byte("clip"), 0o600))
	api := &fakeAPI{taskStatus: tlclient.TaskStatusReady}

	resp := New(api, "", fs).Run(context.Background(), Input{Action: ActionUpload, VideoPath: "/tmp/trip.mp4", VideoName: "trip"})
	require.True(t, resp.OK(), resp.Text())
	assert.Equal(t, "trip", api.uploadedName)
	assert.Equal(t, []byte("clip"), api.uploadedBody)

	got := resp.Content[0].JSON.(uploadResult)
	assert.Equal(t, "vid-1", got.VideoID)
	assert.Equal(t, "Night market", got.Title)
}

func TestUploadFromURLAndFailedTask(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{taskStatus: tlclient.TaskStatusFailed}
	resp := New(api, "", afero.NewMemMapFs()).Run(context.Background(), Input{
		Action:    ActionUpload,
		VideoPath: "https://cdn.example.com/trip.mp4",
		VideoName: "trip",
	})
	assert.Equal(t, "https://cdn.example.com/trip.mp4", api.fromURL)
	assert.False(t, resp.OK())
	assert.Equal(t, "Upload failed with status: failed", resp.Text())
}

func TestUploadValidation(t *testing.T) {
	t.Parallel()

	resp := New(&fakeAPI{}, "", nil).Run(context.Background(), Input{Action: ActionUpload, VideoPath: "/tmp/a.mp4"})
	assert.Equal(t, "video_path and video_name required for upload", resp.Text())
}

func TestQuery(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	resp := New(api, "", nil).Run(context.Background(), Input{Action: ActionQuery, VideoPath: "vid-9", Prompt: "what food?"})
	require.True(t, resp.OK(), resp.Text())
	assert.Equal(t, "vid-9", api.analyzedID)
	assert.Equal(t, "Street food stalls in Bangkok", resp.Content[0].JSON.(queryResult).Response)

	api.analyzeErr = errors.New("status 404")
	resp = New(api, "", nil).Run(context.Background(), Input{Action: ActionQuery, VideoPath: "vid-9", Prompt: "what food?"})
	assert.Equal(t, "Query failed: status 404", resp.Text())
}

func TestAnalyzeUploadsThenQueries(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/media-3.mp4", []byte("clip"), 0o600))
	api := &fakeAPI{taskStatus: tlclient.TaskStatusReady}

	resp := New(api, "travel", fs).Analyze(context.Background(), "/tmp/media-3.mp4", "Where is this?")
	require.True(t, resp.OK(), resp.Text())
	assert.Equal(t, "media-3.mp4", api.uploadedName)
	assert.Equal(t, "vid-1", api.analyzedID)

	payload := resp.Content[0].JSON.(map[string]any)
	assert.Equal(t, "Street food stalls in Bangkok", payload["response"])
	assert.Equal(t, "Night market", payload["title"])
}

func TestListAndSearchVideos(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		indexes: []tlclient.Index{
			{ID: "i1", IndexName: "asia-trips", VideoCount: 2},
			{ID: "i2", IndexName: "empty", VideoCount: 0},
			{ID: "i3", IndexName: "broken", VideoCount: 1},
		},
		videos: map[string][]tlclient.Video{
			"i1": {
				{ID: "v1", SystemMetadata: map[string]any{"filename": "Kyoto.mp4"}},
				{ID: "v2", SystemMetadata: map[string]any{"filename": "seoul.mp4"}},
			},
		},
		listErr: map[string]error{"i3": errors.New("boom")},
	}
	tool := New(api, "", nil)

	all := tool.Run(context.Background(), Input{Action: ActionListVideos})
	require.True(t, all.OK())
	assert.Equal(t, 2, all.Content[0].JSON.(map[string]any)["total_count"])

	found := tool.Run(context.Background(), Input{Action: ActionSearch, Query: "kyoto"})
	require.True(t, found.OK())
	payload := found.Content[0].JSON.(map[string]any)
	assert.Equal(t, 1, payload["total_count"])
	assert.Equal(t, "v1", payload["videos"].([]listedVideo)[0].VideoID)
}
