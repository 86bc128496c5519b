package prompt

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const (
	ImageToolName = "image_reader"
	VideoToolName = "video_reader"

	minTextLength = 3

	shortTextTemplate    = "Please help me with: %s"
	imageInstruction = "Use the " + ImageToolName + " tool to read the image at: %s"
	videoInstruction = "Use the " + VideoToolName + " tool to analyze the video at: %s"

	imageDefaultTemplate = "I'm sharing an image with you. Please analyze it and provide travel recommendations. " + imageInstruction
	videoDefaultTemplate = "I'm sharing a travel video with you. Please analyze it and provide recommendations. " + videoInstruction
	imageTextTemplate    = "%s. " + imageInstruction
	videoTextTemplate    = "%s. " + videoInstruction
)

var (
	genericImageText = map[string]struct{}{"": {}, "image": {}, "analyze": {}, "check": {}}
	genericVideoText = map[string]struct{}{"": {}, "video": {}, "analyze": {}, "check": {}}
)

// Compose builds the instruction handed to the agent. When media is staged the
// instruction names the matching tool and the staged path.
func Compose(text string, staged *contractx.StagedMedia) string {
	text = strings.TrimSpace(text)

	if staged == nil {
		if len([]rune(text)) < minTextLength {
			return fmt.Sprintf(shortTextTemplate, text)
		}
		return text
	}

	key := strings.ToLower(text)
	switch staged.Kind {
	case contractx.MediaImage:
		if _, ok := genericImageText[key]; ok {
			return fmt.Sprintf(imageDefaultTemplate, staged.Path)
		}
		return fmt.Sprintf(imageTextTemplate, text, staged.Path)
	case contractx.MediaVideo:
		if _, ok := genericVideoText[key]; ok {
			return fmt.Sprintf(videoDefaultTemplate, staged.Path)
		}
		return fmt.Sprintf(videoTextTemplate, text, staged.Path)
	default:
		return Compose(text, nil)
	}
}

// StagedPath extracts the path a composed instruction points at.
func StagedPath(composed string) (string, bool) {
	for _, marker := range []string{"read the image at: ", "analyze the video at: "} {
		if idx := strings.LastIndex(composed, marker); idx >= 0 {
			return strings.TrimSpace(composed[idx+len(marker):]), true
		}
	}
	return "", false
}
