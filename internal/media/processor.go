// Package media turns raw uploaded image bytes into storable references.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"

	// Register decoders for format sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/takudzwam/pamsika/internal/domain"
)

// Uploader is the slice of the blob layer the processor needs.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Processor validates raw image bytes and uploads them to object storage,
// returning the object key as the stored image reference. No transcoding is
// performed; offers carry the bytes as submitted.
type Processor struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewProcessor creates a Processor that stores images through the given
// uploader.
func NewProcessor(uploader Uploader, logger *slog.Logger) *Processor {
	return &Processor{
		uploader: uploader,
		logger:   logger.With(slog.String("component", "media")),
	}
}

// extByFormat maps image.DecodeConfig format names to object key extensions.
var extByFormat = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
}

// Encode validates that raw is a decodable image and uploads it under a
// fresh images/ key. It returns domain.ErrUnsupportedImage for bytes that no
// registered decoder recognises.
func (p *Processor) Encode(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", domain.ErrUnsupportedImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}
	ext, ok := extByFormat[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, format)
	}

	key := fmt.Sprintf("images/%s.%s", uuid.NewString(), ext)
	contentType := http.DetectContentType(raw)

	if err := p.uploader.Put(ctx, key, raw, contentType); err != nil {
		return "", fmt.Errorf("media: store image: %w", err)
	}

	p.logger.DebugContext(ctx, "stored image",
		slog.String("key", key),
		slog.String("format", format),
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
		slog.Int("bytes", len(raw)),
	)

	return key, nil
}

// Compile-time interface check.
var _ domain.MediaProcessor = (*Processor)(nil)
