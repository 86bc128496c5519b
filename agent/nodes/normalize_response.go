package dispatchnode

import (
	"fmt"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

func NormalizeResponse(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{
		Response: contractx.Response{Result: contractx.NormalizeResult(in.Result)},
	}, nil
}
