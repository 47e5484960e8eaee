package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// maxImageEdge bounds the longer edge of a transmitted image. Smaller
	// images pass through at their original size.
	maxImageEdge = 1024

	// previewEdge bounds the preview thumbnail.
	previewEdge = 256

	jpegQuality = 85
)

// ProcessImage decodes, downscales and re-encodes an image entirely
// in-process. The result carries the transmission payload and a smaller
// preview, both base64-encoded JPEG.
func ProcessImage(name string, data []byte) (Attachment, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to decode image %s: %w", name, err)
	}

	payload, err := encodeJPEG(fitLongerEdge(img, maxImageEdge))
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to encode image %s: %w", name, err)
	}

	preview, err := encodeJPEG(fitLongerEdge(img, previewEdge))
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to encode preview for %s: %w", name, err)
	}

	return Attachment{
		ID:      uuid.New().String(),
		Kind:    AttachmentImage,
		Name:    name,
		Size:    int64(len(data)),
		Payload: payload,
		Preview: preview,
	}, nil
}

// fitLongerEdge scales img so its longer edge is at most edge pixels,
// preserving aspect ratio. Images already within the bound are returned
// unchanged; there is no upscaling.
func fitLongerEdge(img image.Image, edge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= edge && h <= edge {
		return img
	}
	if w >= h {
		return imaging.Resize(img, edge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, edge, imaging.Lanczos)
}

func encodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
