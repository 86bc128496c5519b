// Package twelvelabs is a small REST client for the TwelveLabs video
// understanding API (indexes, upload tasks, gist and analyze).
package twelvelabs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxResponseSizeBytes = 4 << 20

	TaskStatusReady  = "ready"
	TaskStatusFailed = "failed"
)

var (
	ErrMissingAPIKey = errors.New("twelvelabs api key is required")
	ErrTaskFailed    = errors.New("twelvelabs task did not become ready")
)

type Config struct {
	APIKey       string        `envconfig:"API_KEY"`
	BaseURL      string        `envconfig:"BASE_URL" default:"https://api.twelvelabs.io/v1.3"`
	IndexName    string        `envconfig:"INDEX_NAME" default:"video-analysis-index"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"30s"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
}

type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.twelvelabs.io/v1.3"
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid twelvelabs base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}

	client := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: poll,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

type Index struct {
	ID         string `json:"_id"`
	IndexName  string `json:"index_name"`
	VideoCount int    `json:"video_count"`
}

type Video struct {
	ID             string         `json:"_id"`
	CreatedAt      string         `json:"created_at"`
	SystemMetadata map[string]any `json:"system_metadata,omitempty"`
}

// Filename returns the original file name recorded at upload, if any.
func (v Video) Filename() string {
	if v.SystemMetadata == nil {
		return ""
	}
	name, _ := v.SystemMetadata["filename"].(string)
	return name
}

type Task struct {
	ID      string `json:"_id"`
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
	IndexID string `json:"index_id"`
}

type Gist struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Topics   []string `json:"topics"`
	Hashtags []string `json:"hashtags"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (c *Client) ListIndexes(ctx context.Context, modelFamily string) ([]Index, error) {
	query := url.Values{}
	if modelFamily != "" {
		query.Set("model_family", modelFamily)
	}
	var out listResponse[Index]
	if err := c.doJSON(ctx, http.MethodGet, "/indexes", query, nil, &out); err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return out.Data, nil
}

func (c *Client) CreateIndex(ctx context.Context, name string) (Index, error) {
	body := map[string]any{
		"index_name": name,
		"models": []map[string]any{
			{
				"model_name":    "pegasus1.2",
				"model_options": []string{"visual", "audio"},
			},
		},
	}
	var out Index
	if err := c.doJSON(ctx, http.MethodPost, "/indexes", nil, body, &out); err != nil {
		return Index{}, fmt.Errorf("create index: %w", err)
	}
	out.IndexName = name
	return out, nil
}

// GetOrCreateIndex returns the index named name, creating it when absent.
func (c *Client) GetOrCreateIndex(ctx context.Context, name string) (Index, error) {
	indexes, err := c.ListIndexes(ctx, "")
	if err == nil {
		for _, idx := range indexes {
			if idx.IndexName == name {
				return idx, nil
			}
		}
	}
	return c.CreateIndex(ctx, name)
}

func (c *Client) ListVideos(ctx context.Context, indexID string) ([]Video, error) {
	var out listResponse[Video]
	if err := c.doJSON(ctx, http.MethodGet, "/indexes/"+url.PathEscape(indexID)+"/videos", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list videos for index=%s: %w", indexID, err)
	}
	return out.Data, nil
}

// CreateTaskFromURL indexes a remote video.
func (c *Client) CreateTaskFromURL(ctx context.Context, indexID, videoURL string) (Task, error) {
	return c.createTask(ctx, indexID, func(w *multipart.Writer) error {
		return w.WriteField("video_url", videoURL)
	})
}

// CreateTaskFromFile uploads and indexes a local video.
func (c *Client) CreateTaskFromFile(ctx context.Context, indexID, filename string, video io.Reader) (Task, error) {
	return c.createTask(ctx, indexID, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("video_file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, video)
		return err
	})
}

func (c *Client) createTask(ctx context.Context, indexID string, source func(*multipart.Writer) error) (Task, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("index_id", indexID); err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	if err := source(writer); err != nil {
		return Task{}, fmt.Errorf("create task: write video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/tasks", nil, &buf)
	if err != nil {
		return Task{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	return task, nil
}

func (c *Client) GetTask(ctx context.Context, taskID string) (Task, error) {
	var task Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, nil, &task); err != nil {
		return Task{}, fmt.Errorf("get task=%s: %w", taskID, err)
	}
	return task, nil
}

// WaitForTask polls until the task is ready or failed, or ctx is done.
func (c *Client) WaitForTask(ctx context.Context, taskID string) (Task, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return Task{}, err
		}
		switch task.Status {
		case TaskStatusReady:
			return task, nil
		case TaskStatusFailed:
			return task, fmt.Errorf("%w: status=%s", ErrTaskFailed, task.Status)
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) Gist(ctx context.Context, videoID string, types ...string) (Gist, error) {
	if len(types) == 0 {
		types = []string{"title", "topic", "hashtag"}
	}
	var out Gist
	body := map[string]any{"video_id": videoID, "types": types}
	if err := c.doJSON(ctx, http.MethodPost, "/gist", nil, body, &out); err != nil {
		return Gist{}, fmt.Errorf("gist video=%s: %w", videoID, err)
	}
	return out, nil
}

// Analyze asks an open-ended question about an indexed video. The endpoint
// streams newline-delimited events; text_generation fragments are joined.
func (c *Client) Analyze(ctx context.Context, videoID, prompt string, temperature float64) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"video_id":    videoID,
		"prompt":      prompt,
		"temperature": temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/analyze", nil, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("analyze video=%s: %w", videoID, err)
	}
	return joinTextGeneration(raw), nil
}

func joinTextGeneration(raw []byte) string {
	var sb strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseSizeBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event struct {
			EventType string `json:"event_type"`
			Text      string `json:"text"`
		}
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.EventType == "text_generation" {
			sb.WriteString(event.Text)
		}
	}
	return sb.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	raw, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	if c == nil {
		return nil, errors.New("nil twelvelabs client")
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
