package dispatchnode

import (
	"fmt"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	promptx "github.com/tanpawarit/multimodal-travel-agent/agent/prompt"
)

func ComposePrompt(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Prompt = promptx.Compose(in.Text, in.Staged)
	return in, nil
}
