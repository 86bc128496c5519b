// Package twelvelabs exposes the TwelveLabs video API as an agent tool:
// upload and index a video, ask questions about it, and list what is indexed.
package twelvelabs

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	videox "github.com/tanpawarit/multimodal-travel-agent/agent/video"
	tlclient "github.com/tanpawarit/multimodal-travel-agent/pkg/twelvelabs"
)

const (
	ActionUpload     = "upload"
	ActionQuery      = "query"
	ActionListVideos = "list_videos"
	ActionSearch     = "search"

	modelFamilyPegasus = "pegasus"
	defaultIndexName   = "video-analysis-index"
)

// API is the subset of the TwelveLabs client the tool needs.
type API interface {
	ListIndexes(ctx context.Context, modelFamily string) ([]tlclient.Index, error)
	GetOrCreateIndex(ctx context.Context, name string) (tlclient.Index, error)
	ListVideos(ctx context.Context, indexID string) ([]tlclient.Video, error)
	CreateTaskFromURL(ctx context.Context, indexID, videoURL string) (tlclient.Task, error)
	CreateTaskFromFile(ctx context.Context, indexID, filename string, video io.Reader) (tlclient.Task, error)
	WaitForTask(ctx context.Context, taskID string) (tlclient.Task, error)
	Gist(ctx context.Context, videoID string, types ...string) (tlclient.Gist, error)
	Analyze(ctx context.Context, videoID, prompt string, temperature float64) (string, error)
}

var _ API = (*tlclient.Client)(nil)

type Input struct {
	Action      string   `json:"action"`
	VideoPath   string   `json:"video_path,omitempty"`
	VideoName   string   `json:"video_name,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	IndexName   string   `json:"index_name,omitempty"`
	Query       string   `json:"query,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type Tool struct {
	api       API
	fs        afero.Fs
	indexName string
}

var _ videox.Analyzer = (*Tool)(nil)

// New wraps api; a nil api yields a tool that reports the missing key.
func New(api API, indexName string, fs afero.Fs) *Tool {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(indexName) == "" {
		indexName = defaultIndexName
	}
	return &Tool{api: api, fs: fs, indexName: indexName}
}

func (t *Tool) Run(ctx context.Context, in Input) videox.ToolResponse {
	if t.api == nil {
		return videox.Failure("TL_API_KEY environment variable required")
	}

	temp := videox.DefaultTemperature
	if in.Temperature != nil {
		temp = *in.Temperature
	}

	switch strings.TrimSpace(in.Action) {
	case ActionUpload:
		return t.upload(ctx, in.VideoPath, in.VideoName, in.IndexName)
	case ActionQuery:
		return t.query(ctx, in.VideoPath, in.Prompt, temp)
	case ActionListVideos:
		return t.listVideos(ctx, "")
	case ActionSearch:
		filter := in.Query
		if strings.TrimSpace(filter) == "" {
			filter = in.VideoName
		}
		return t.listVideos(ctx, filter)
	default:
		return videox.Failure("Invalid action: %s. Use upload, query, list_videos, or search", in.Action)
	}
}

// Analyze indexes a local file and asks prompt about it.
func (t *Tool) Analyze(ctx context.Context, videoPath, prompt string) videox.ToolResponse {
	if t.api == nil {
		return videox.Failure("TL_API_KEY environment variable required")
	}
	if strings.TrimSpace(videoPath) == "" || strings.TrimSpace(prompt) == "" {
		return videox.Failure("video_path and prompt are required")
	}

	uploaded := t.upload(ctx, videoPath, filepath.Base(videoPath), "")
	if !uploaded.OK() {
		return uploaded
	}
	info, _ := uploaded.Content[0].JSON.(uploadResult)

	answer := t.query(ctx, info.VideoID, prompt, videox.DefaultTemperature)
	if !answer.OK() {
		return answer
	}
	q, _ := answer.Content[0].JSON.(queryResult)

	return videox.Success(map[string]any{
		"video_id": info.VideoID,
		"title":    info.Title,
		"topics":   info.Topics,
		"hashtags": info.Hashtags,
		"prompt":   q.Prompt,
		"response": q.Response,
	})
}

type uploadResult struct {
	VideoID  string   `json:"video_id"`
	Title    string   `json:"title"`
	Topics   []string `json:"topics"`
	Hashtags []string `json:"hashtags"`
}

func (t *Tool) upload(ctx context.Context, videoPath, videoName, indexName string) videox.ToolResponse {
	videoPath = strings.TrimSpace(videoPath)
	videoName = strings.TrimSpace(videoName)
	if videoPath == "" || videoName == "" {
		return videox.Failure("video_path and video_name required for upload")
	}
	if strings.TrimSpace(indexName) == "" {
		indexName = t.indexName
	}

	index, err := t.api.GetOrCreateIndex(ctx, indexName)
	if err != nil {
		return videox.Failure("Operation failed: %v", err)
	}

	var task tlclient.Task
	if strings.HasPrefix(videoPath, "http") {
		task, err = t.api.CreateTaskFromURL(ctx, index.ID, videoPath)
	} else {
		task, err = t.createFromFile(ctx, index.ID, videoPath, videoName)
	}
	if err != nil {
		return videox.Failure("Operation failed: %v", err)
	}

	task, err = t.api.WaitForTask(ctx, task.ID)
	if err != nil {
		if errors.Is(err, tlclient.ErrTaskFailed) {
			return videox.Failure("Upload failed with status: %s", task.Status)
		}
		return videox.Failure("Operation failed: %v", err)
	}
	if task.Status != tlclient.TaskStatusReady {
		return videox.Failure("Upload failed with status: %s", task.Status)
	}

	gist, err := t.api.Gist(ctx, task.VideoID, "title", "topic", "hashtag")
	if err != nil {
		return videox.Failure("Operation failed: %v", err)
	}

	log.Ctx(ctx).Debug().Str("index", index.IndexName).Str("video_id", task.VideoID).Msg("video indexed")
	return videox.Success(uploadResult{
		VideoID:  task.VideoID,
		Title:    gist.Title,
		Topics:   gist.Topics,
		Hashtags: gist.Hashtags,
	})
}

func (t *Tool) createFromFile(ctx context.Context, indexID, videoPath, videoName string) (tlclient.Task, error) {
	f, err := t.fs.Open(videoPath)
	if err != nil {
		return tlclient.Task{}, err
	}
	defer f.Close()
	return t.api.CreateTaskFromFile(ctx, indexID, videoName, f)
}

type queryResult struct {
	VideoID  string `json:"video_id"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

func (t *Tool) query(ctx context.Context, videoID, prompt string, temperature float64) videox.ToolResponse {
	videoID = strings.TrimSpace(videoID)
	prompt = strings.TrimSpace(prompt)
	if videoID == "" || prompt == "" {
		return videox.Failure("video_path (video_id) and prompt required for query")
	}

	text, err := t.api.Analyze(ctx, videoID, prompt, temperature)
	if err != nil {
		return videox.Failure("Query failed: %v", err)
	}
	return videox.Success(queryResult{VideoID: videoID, Prompt: prompt, Response: text})
}

type listedVideo struct {
	VideoID   string `json:"video_id"`
	Filename  string `json:"filename,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	IndexName string `json:"index_name"`
	IndexID   string `json:"index_id"`
}

// listVideos walks every pegasus index that has videos. Indexes whose video
// listing fails are skipped.
func (t *Tool) listVideos(ctx context.Context, filter string) videox.ToolResponse {
	indexes, err := t.api.ListIndexes(ctx, modelFamilyPegasus)
	if err != nil {
		return videox.Failure("Failed to list indexes: %v", err)
	}

	videos := make([]listedVideo, 0)
	for _, idx := range indexes {
		if idx.VideoCount <= 0 {
			continue
		}
		items, err := t.api.ListVideos(ctx, idx.ID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("index_id", idx.ID).Msg("list videos failed")
			continue
		}
		for _, v := range items {
			lv := listedVideo{
				VideoID:   v.ID,
				Filename:  v.Filename(),
				CreatedAt: v.CreatedAt,
				IndexName: idx.IndexName,
				IndexID:   idx.ID,
			}
			if filter != "" && !matches(lv, filter) {
				continue
			}
			videos = append(videos, lv)
		}
	}

	out := map[string]any{
		"videos":      videos,
		"total_count": len(videos),
	}
	if filter != "" {
		out["filter_applied"] = filter
	}
	return videox.Success(out)
}

func matches(v listedVideo, filter string) bool {
	return videox.MatchesFilter(v.Filename, filter) ||
		videox.MatchesFilter(v.IndexName, filter) ||
		videox.MatchesFilter(v.VideoID, filter)
}
