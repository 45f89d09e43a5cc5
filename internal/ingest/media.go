package ingest

// media.go offloads embedded inline images to object storage.
//
// A media field either matches the strict data-URI pattern and is decoded,
// downscaled, re-encoded as JPEG, and uploaded, or it degrades: first to
// an externally supplied URL for the same field, then to nil. No media
// failure ever fails the row; each one surfaces as a row warning.

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"regexp"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// jpegQuality is the fixed re-encode quality for uploaded media.
const jpegQuality = 80

// dataURIRegex matches the supported inline image encodings. Anything
// else (image/bmp, image/tiff, non-base64) never reaches the decoder.
var dataURIRegex = regexp.MustCompile(`^data:image/(jpeg|png|gif|webp);base64,(.+)$`)

// pathUnsafe strips characters that should not appear in a storage path
// segment derived from record data.
var pathUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// MediaProcessor decodes, resizes, and uploads embedded media.
type MediaProcessor struct {
	blobs ObjectStore
	log   *slog.Logger
}

// NewMediaProcessor creates a processor uploading through blobs.
func NewMediaProcessor(blobs ObjectStore, log *slog.Logger) *MediaProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &MediaProcessor{blobs: blobs, log: log}
}

// Process resolves one media field on rec in place and returns warnings
// for any degradation. After Process, rec[spec.TargetField] is either a
// storage URL, the external fallback URL, or nil.
func (m *MediaProcessor) Process(ctx context.Context, kind string, spec MediaSpec, rec Record) []string {
	raw := rec.String(spec.Field)
	fallback := strings.TrimSpace(rec.String(spec.FallbackField))

	// The inline payload is never persisted, only its storage result.
	delete(rec, spec.Field)

	degrade := func(reason string) []string {
		if fallback != "" {
			rec[spec.TargetField] = fallback
			return []string{fmt.Sprintf("%s: %s, using provided URL", spec.Field, reason)}
		}
		rec[spec.TargetField] = nil
		return []string{fmt.Sprintf("%s: %s", spec.Field, reason)}
	}

	if raw == "" {
		if fallback != "" {
			rec[spec.TargetField] = fallback
		} else {
			rec[spec.TargetField] = nil
		}
		return nil
	}

	match := dataURIRegex.FindStringSubmatch(raw)
	if match == nil {
		return degrade("unsupported image data")
	}

	payload, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return degrade("image data is not valid base64")
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		m.log.Warn("media decode failed", "kind", kind, "field", spec.Field, "error", err)
		return degrade("image could not be decoded")
	}

	resized := fitWithin(img, spec.MaxWidth, spec.MaxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		m.log.Warn("media encode failed", "kind", kind, "field", spec.Field, "error", err)
		return degrade("image could not be re-encoded")
	}

	if m.blobs == nil {
		return degrade("object storage not configured")
	}

	path := fmt.Sprintf("%s/%s/%s.jpg", kind, m.namespace(spec, rec), uuid.New().String())
	url, err := m.blobs.Put(ctx, path, buf.Bytes(), "image/jpeg")
	if err != nil {
		m.log.Warn("media upload failed", "kind", kind, "path", path, "error", err)
		mediaFailures.WithLabelValues(kind).Inc()
		return degrade("image upload failed")
	}

	rec[spec.TargetField] = url
	return nil
}

// namespace returns the per-entity storage path segment: the configured
// namespace field's value when present, else a generated token.
func (m *MediaProcessor) namespace(spec MediaSpec, rec Record) string {
	if spec.NamespaceField != "" {
		if v := pathUnsafe.ReplaceAllString(rec.String(spec.NamespaceField), ""); v != "" {
			return v
		}
	}
	return uuid.New().String()
}

// fitWithin downscales img to fit maxW x maxH preserving aspect ratio.
// Images already inside the box are returned unchanged: never upscale.
func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
