package contract

import (
	"fmt"
	"strings"
)

// AgentResult is the closed set of shapes an agent turn can produce.
type AgentResult interface {
	fmt.Stringer
	isAgentResult()
}

type PlainText string

func (PlainText) isAgentResult()   {}
func (p PlainText) String() string { return string(p) }

type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockOther BlockType = "other"
)

type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`
}

type StructuredMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

func (StructuredMessage) isAgentResult() {}

// String joins all text blocks.
func (m StructuredMessage) String() string {
	parts := make([]string, 0, len(m.Content))
	for _, block := range m.Content {
		if block.Type == BlockText && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Opaque wraps any other value returned by an agent implementation.
type Opaque struct {
	Value any
}

func (Opaque) isAgentResult() {}

func (o Opaque) String() string {
	if o.Value == nil {
		return ""
	}
	return fmt.Sprint(o.Value)
}

// NormalizeResult flattens an agent result into the reply text.
func NormalizeResult(res AgentResult) string {
	switch r := res.(type) {
	case nil:
		return ""
	case StructuredMessage:
		if len(r.Content) == 0 {
			return r.String()
		}
		if first := r.Content[0]; first.Type == BlockText {
			return first.Text
		}
		return r.String()
	case *StructuredMessage:
		if r == nil {
			return ""
		}
		return NormalizeResult(*r)
	case PlainText:
		return string(r)
	case Opaque:
		return r.String()
	default:
		return res.String()
	}
}
