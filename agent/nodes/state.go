package dispatchnode

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

type GraphInput struct {
	Request  contractx.Request
	Metadata contractx.Metadata
	Scope    *StagingScope
}

type GraphOutput struct {
	Response contractx.Response
}

type GraphState struct {
	Text     string
	Media    *contractx.Media
	Metadata contractx.Metadata
	Scope    *StagingScope

	Identity contractx.Identity
	Agent    contractx.Agent
	Staged   *contractx.StagedMedia
	Prompt   string
	Result   contractx.AgentResult
}

// StagingScope owns every file staged for one request. Release removes them
// and may be called more than once.
type StagingScope struct {
	mu     sync.Mutex
	stager contractx.MediaStager
	paths  []string
}

func NewStagingScope(stager contractx.MediaStager) *StagingScope {
	return &StagingScope{stager: stager}
}

func (s *StagingScope) Stage(m *contractx.Media) (contractx.StagedMedia, error) {
	if s == nil || s.stager == nil {
		return contractx.StagedMedia{}, errors.New("media stager is not configured")
	}

	staged, err := s.stager.Stage(m)
	if err != nil {
		return contractx.StagedMedia{}, err
	}

	s.mu.Lock()
	s.paths = append(s.paths, staged.Path)
	s.mu.Unlock()
	return staged, nil
}

func (s *StagingScope) Release(ctx context.Context) {
	if s == nil {
		return
	}

	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for _, p := range paths {
		if err := s.stager.Unstage(p); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("path", p).Msg("remove staged media failed")
		}
	}
}
