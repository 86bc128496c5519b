package dispatchnode

import (
	"fmt"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

// StageMedia writes the media payload to disk through the request scope.
// Text-only requests pass through untouched.
func StageMedia(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Media == nil {
		return in, nil
	}

	staged, err := in.Scope.Stage(in.Media)
	if err != nil {
		return nil, err
	}
	in.Staged = &staged
	return in, nil
}
