package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

func TestStageWritesDecodedBytes(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	stager := NewStager(fs, Config{Dir: "/staging"})

	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	staged, err := stager.Stage(&contractx.Media{
		Type:   contractx.MediaImage,
		Format: "PNG",
		Data:   base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	if filepath.Dir(staged.Path) != "/staging" {
		t.Fatalf("unexpected dir: %s", staged.Path)
	}
	if !strings.HasSuffix(staged.Path, ".png") {
		t.Fatalf("unexpected extension: %s", staged.Path)
	}
	if staged.Kind != contractx.MediaImage || staged.Format != "png" {
		t.Fatalf("unexpected staged media: %+v", staged)
	}

	got, err := afero.ReadFile(fs, staged.Path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("staged bytes differ: %v", got)
	}

	if err := stager.Unstage(staged.Path); err != nil {
		t.Fatalf("Unstage() error = %v", err)
	}
	if exists, _ := afero.Exists(fs, staged.Path); exists {
		t.Fatal("staged file still exists after Unstage")
	}
}

func TestStageDefaultFormats(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	stager := NewStager(fs, Config{Dir: "/tmp"})
	data := base64.StdEncoding.EncodeToString([]byte("x"))

	img, err := stager.Stage(&contractx.Media{Type: contractx.MediaImage, Data: data})
	if err != nil {
		t.Fatalf("Stage(image) error = %v", err)
	}
	if !strings.HasSuffix(img.Path, ".jpg") {
		t.Fatalf("image path = %s, want .jpg", img.Path)
	}

	vid, err := stager.Stage(&contractx.Media{Type: contractx.MediaVideo, Data: data})
	if err != nil {
		t.Fatalf("Stage(video) error = %v", err)
	}
	if !strings.HasSuffix(vid.Path, ".mp4") {
		t.Fatalf("video path = %s, want .mp4", vid.Path)
	}
	if img.Path == vid.Path {
		t.Fatal("expected unique staged paths")
	}
}

func TestStageInvalidBase64LeavesNothing(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	stager := NewStager(fs, Config{Dir: "/staging"})

	_, err := stager.Stage(&contractx.Media{Type: contractx.MediaImage, Data: "%%%not-base64"})
	if !errors.Is(err, contractx.ErrMediaDecode) {
		t.Fatalf("Stage() error = %v, want ErrMediaDecode", err)
	}

	entries, _ := afero.ReadDir(fs, "/staging")
	if len(entries) != 0 {
		t.Fatalf("expected no staged files, got %d", len(entries))
	}
}

func TestStageWriteFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	stager := NewStager(fs, Config{Dir: "/"})

	_, err := stager.Stage(&contractx.Media{
		Type: contractx.MediaVideo,
		Data: base64.StdEncoding.EncodeToString([]byte("clip")),
	})
	if !errors.Is(err, contractx.ErrMediaStage) {
		t.Fatalf("Stage() error = %v, want ErrMediaStage", err)
	}
}

func TestUnstageMissingFileIsNotError(t *testing.T) {
	t.Parallel()

	stager := NewStager(afero.NewMemMapFs(), Config{Dir: "/staging"})
	if err := stager.Unstage("/staging/media-gone.jpg"); err != nil {
		t.Fatalf("Unstage() error = %v", err)
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":        "jpg",
		"JPEG":    "jpeg",
		".mov":    "mov",
		"../etc":  "etc",
		"  webm ": "webm",
		"///":     "jpg",
	}
	for in, want := range cases {
		if got := Extension(in, "jpg"); got != want {
			t.Fatalf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}
