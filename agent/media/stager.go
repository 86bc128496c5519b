// Package media stages inbound base64 media as temporary files so that tools
// can read them by path.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const filePrefix = "media-"

type Config struct {
	Dir string `envconfig:"MEDIA_STAGING_DIR"`
}

type Stager struct {
	fs  afero.Fs
	dir string
}

var _ contractx.MediaStager = (*Stager)(nil)

func NewStager(fs afero.Fs, cfg Config) *Stager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = os.TempDir()
	}
	return &Stager{fs: fs, dir: dir}
}

// Stage decodes the payload and writes it to a fresh file. The returned path
// refers to a fully written and synced file; on error no file is left behind.
func (s *Stager) Stage(m *contractx.Media) (contractx.StagedMedia, error) {
	if m == nil {
		return contractx.StagedMedia{}, fmt.Errorf("%w: media is nil", contractx.ErrValidation)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.Data))
	if err != nil {
		return contractx.StagedMedia{}, fmt.Errorf("%w: %v", contractx.ErrMediaDecode, err)
	}

	format := Extension(m.Format, m.DefaultFormat())
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return contractx.StagedMedia{}, fmt.Errorf("%w: create dir: %v", contractx.ErrMediaStage, err)
	}

	f, err := afero.TempFile(s.fs, s.dir, filePrefix+"*."+format)
	if err != nil {
		return contractx.StagedMedia{}, fmt.Errorf("%w: create file: %v", contractx.ErrMediaStage, err)
	}
	path := f.Name()

	if err := writeAndSync(f, data); err != nil {
		_ = s.fs.Remove(path)
		return contractx.StagedMedia{}, fmt.Errorf("%w: %v", contractx.ErrMediaStage, err)
	}

	log.Debug().
		Str("path", path).
		Str("kind", string(m.Type)).
		Int("bytes", len(data)).
		Msg("media staged")

	return contractx.StagedMedia{
		Path:   path,
		Format: format,
		Kind:   m.Type,
	}, nil
}

func (s *Stager) Unstage(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged media %s: %w", path, err)
	}
	return nil
}

func writeAndSync(f afero.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Extension normalises a declared format into a safe file extension.
func Extension(format, def string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	format = strings.TrimPrefix(format, ".")

	var sb strings.Builder
	for _, r := range format {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return def
	}
	return sb.String()
}
