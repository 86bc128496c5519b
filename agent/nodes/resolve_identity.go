package dispatchnode

import (
	"fmt"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	identityx "github.com/tanpawarit/multimodal-travel-agent/agent/identity"
)

func ResolveIdentity(in *GraphState, resolver identityx.Resolver) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Identity = resolver.Resolve(in.Metadata)
	return in, nil
}
