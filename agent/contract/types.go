package contract

import "strings"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Default file extensions used when a media block omits its format.
const (
	DefaultImageFormat = "jpg"
	DefaultVideoFormat = "mp4"
)

type Media struct {
	Type   MediaKind `json:"type"`
	Format string    `json:"format,omitempty"`
	Data   string    `json:"data"`
}

// Supported reports whether the media kind has a staging path.
func (m *Media) Supported() bool {
	return m != nil && (m.Type == MediaImage || m.Type == MediaVideo)
}

func (m *Media) DefaultFormat() string {
	if m != nil && m.Type == MediaVideo {
		return DefaultVideoFormat
	}
	return DefaultImageFormat
}

type Request struct {
	Prompt string `json:"prompt"`
	Media  *Media `json:"media,omitempty"`
}

type Response struct {
	Result string `json:"result"`
}

// Metadata is what the hosting runtime tells us about a request besides the
// payload itself.
type Metadata struct {
	RequestID string
	SessionID string
	Headers   map[string]string
}

// Header does a case-insensitive lookup.
func (m Metadata) Header(name string) string {
	if v, ok := m.Headers[name]; ok {
		return v
	}
	for k, v := range m.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

type Identity struct {
	ActorID   string `json:"actor_id"`
	SessionID string `json:"session_id"`
}

type StagedMedia struct {
	Path   string
	Format string
	Kind   MediaKind
}

type ToolRequest struct {
	ID   string         `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ImageAttachment struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type ToolResult struct {
	Tool   string            `json:"tool"`
	Result any               `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Images []ImageAttachment `json:"-"`
}
