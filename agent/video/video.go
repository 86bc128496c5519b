// Package video holds the result envelope shared by the video analysis tools
// and the Analyzer contract behind the agent's video_reader tool.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const DefaultTemperature = 0.2

// Extensions recognised as video objects.
var Extensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".m4v"}

type ContentBlock struct {
	Text string `json:"text,omitempty"`
	JSON any    `json:"json,omitempty"`
}

// ToolResponse is what every video tool returns. Backend failures are reported
// with StatusError rather than a Go error.
type ToolResponse struct {
	Status  string         `json:"status"`
	Content []ContentBlock `json:"content"`
}

func Success(v any) ToolResponse {
	return ToolResponse{Status: StatusSuccess, Content: []ContentBlock{{JSON: v}}}
}

func Failure(format string, args ...any) ToolResponse {
	return ToolResponse{Status: StatusError, Content: []ContentBlock{{Text: fmt.Sprintf(format, args...)}}}
}

func (r ToolResponse) OK() bool { return r.Status == StatusSuccess }

// Text flattens the content for a model: text blocks as-is, JSON blocks encoded.
func (r ToolResponse) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
		if c.JSON != nil {
			raw, err := json.Marshal(c.JSON)
			if err != nil {
				parts = append(parts, fmt.Sprint(c.JSON))
				continue
			}
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}

// Analyzer answers a question about a local video file.
type Analyzer interface {
	Analyze(ctx context.Context, videoPath, prompt string) ToolResponse
}

// IsVideoKey reports whether an object key or file name has a video extension.
func IsVideoKey(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// MatchesFilter is a case-insensitive substring match; an empty filter matches.
func MatchesFilter(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}
