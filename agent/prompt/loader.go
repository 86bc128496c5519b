package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

//go:embed template/extract.txt
var extractRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System  string
	Extract string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:  strings.TrimSpace(systemRaw),
		Extract: strings.TrimSpace(extractRaw),
	}
}
