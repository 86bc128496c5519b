package tool

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const fileReadMaxBytes = 256 << 10

type FileReadOutput struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Truncated bool   `json:"truncated"`
}

func executeFileRead(fs afero.Fs, tool string, args map[string]any) (contractx.ToolResult, error) {
	path := stringArg(args, "path")
	if path == "" {
		return contractx.ToolResult{Tool: tool, Error: "path is required"}, nil
	}

	out, err := readText(fs, path, intArg(args, "start_line"), intArg(args, "end_line"))
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: out}, nil
}

// readText returns lines [start, end] of a text file, 1-based and inclusive.
// Zero bounds mean the beginning and the end of the file.
func readText(fs afero.Fs, path string, start, end int) (FileReadOutput, error) {
	f, err := fs.Open(path)
	if err != nil {
		return FileReadOutput{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, fileReadMaxBytes+1))
	if err != nil {
		return FileReadOutput{}, fmt.Errorf("read %s: %w", path, err)
	}
	truncated := len(raw) > fileReadMaxBytes
	if truncated {
		raw = raw[:fileReadMaxBytes]
	}

	if mt := mimetype.Detect(raw); !isTextMIME(mt) {
		return FileReadOutput{}, fmt.Errorf("file %s is not a text document (detected %s)", path, mt.String())
	}

	if start <= 0 {
		start = 1
	}
	if end > 0 && end < start {
		return FileReadOutput{}, fmt.Errorf("end_line %d is before start_line %d", end, start)
	}

	var (
		sb   strings.Builder
		line int
		last int
	)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), fileReadMaxBytes)
	for scanner.Scan() {
		line++
		if line < start {
			continue
		}
		if end > 0 && line > end {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(scanner.Text())
		last = line
	}
	if err := scanner.Err(); err != nil {
		return FileReadOutput{}, fmt.Errorf("scan %s: %w", path, err)
	}

	return FileReadOutput{
		Path:      path,
		Content:   sb.String(),
		StartLine: start,
		EndLine:   last,
		Truncated: truncated,
	}, nil
}

func isTextMIME(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
