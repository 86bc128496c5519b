package tool

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
)

const (
	imageMaxSide      = 1568
	imageMaxReadBytes = 20 << 20
	imageMaxBytes     = 5 << 20
)

var jpegQualities = []int{85, 75, 65, 55, 45}

type ImageReaderOutput struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
	Resized  bool   `json:"resized"`
	MIMEType string `json:"mime_type"`
}

func executeImageReader(fs afero.Fs, tool string, args map[string]any) (contractx.ToolResult, error) {
	path := stringArg(args, "image_path")
	if path == "" {
		return contractx.ToolResult{Tool: tool, Error: "image_path is required"}, nil
	}

	out, attachment, err := readImage(fs, path)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	return contractx.ToolResult{
		Tool:   tool,
		Result: out,
		Images: []contractx.ImageAttachment{attachment},
	}, nil
}

// readImage decodes, orients and downsizes the image so that it fits a
// vision model's input limits. PNG stays PNG; everything else becomes JPEG.
func readImage(fs afero.Fs, path string) (ImageReaderOutput, contractx.ImageAttachment, error) {
	f, err := fs.Open(path)
	if err != nil {
		return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, imageMaxReadBytes+1))
	if err != nil {
		return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("read image %s: %w", path, err)
	}
	if len(raw) > imageMaxReadBytes {
		return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("image %s exceeds %d bytes", path, imageMaxReadBytes)
	}

	mt := mimetype.Detect(raw)
	if !isImageMIME(mt) {
		return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("file %s is not an image (detected %s)", path, mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("decode image %s: %w", path, err)
	}

	resized := false
	if b := img.Bounds(); b.Dx() > imageMaxSide || b.Dy() > imageMaxSide {
		img = imaging.Fit(img, imageMaxSide, imageMaxSide, imaging.Lanczos)
		resized = true
	}

	var (
		buf      bytes.Buffer
		format   = "jpeg"
		mimeType = "image/jpeg"
	)
	if mt.Is("image/png") {
		format, mimeType = "png", "image/png"
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("encode png: %w", err)
		}
	} else {
		encoded := false
		for _, q := range jpegQualities {
			buf.Reset()
			if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
				return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("encode jpeg (q=%d): %w", q, err)
			}
			if buf.Len() <= imageMaxBytes {
				encoded = true
				break
			}
		}
		if !encoded {
			return ImageReaderOutput{}, contractx.ImageAttachment{}, fmt.Errorf("image %s too large even at lowest quality", path)
		}
	}

	b := img.Bounds()
	return ImageReaderOutput{
			Path:     path,
			Format:   format,
			Width:    b.Dx(),
			Height:   b.Dy(),
			Bytes:    buf.Len(),
			Resized:  resized,
			MIMEType: mimeType,
		}, contractx.ImageAttachment{
			MIMEType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
		}, nil
}

func isImageMIME(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		switch m.String() {
		case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff":
			return true
		}
	}
	return false
}
