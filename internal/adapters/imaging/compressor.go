// Package imaging compresses images by re-encoding them with tighter settings
// and optionally piping them through external optimizers.
package imaging

import (
	"bytes"
	"context"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ImageCompressor = (*Compressor)(nil)

// Compressor implements ports.ImageCompressor.
type Compressor struct {
	minifier   ports.Minifier
	runner     ports.CommandRunner
	quality    int
	optimizers map[string][]string
}

// NewCompressor creates a Compressor. SVG files are minified with minifier;
// optimizers run through runner.
func NewCompressor(minifier ports.Minifier, runner ports.CommandRunner, cfg domain.ImageConfig) *Compressor {
	quality := cfg.JPEGQuality
	if quality == 0 {
		quality = domain.DefaultJPEGQuality
	}
	return &Compressor{
		minifier:   minifier,
		runner:     runner,
		quality:    quality,
		optimizers: cfg.Optimizers,
	}
}

// Compress returns the smallest encoding found for the image at path.
// Formats it does not know are returned unchanged.
func (c *Compressor) Compress(ctx context.Context, path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))

	best, err := c.reencode(ext, data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrImageCompressFailed.Error()), "file", path)
	}

	if argv, ok := c.optimizers[ext]; ok {
		out, err := c.runner.Run(ctx, argv, best)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrImageCompressFailed.Error()), "file", path)
			return nil, zerr.With(err, "step", "optimizer")
		}
		best = smaller(best, out)
	}

	return best, nil
}

func (c *Compressor) reencode(ext string, data []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch ext {
	case ".png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return nil, err
		}
	case ".gif":
		img, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if err := gif.EncodeAll(&buf, img); err != nil {
			return nil, err
		}
	case ".svg":
		out, err := c.minifier.MinifySVG(data)
		if err != nil {
			return nil, err
		}
		return smaller(data, out), nil
	default:
		return data, nil
	}

	return smaller(data, buf.Bytes()), nil
}

// smaller returns candidate when it is non-empty and shorter than original.
func smaller(original, candidate []byte) []byte {
	if len(candidate) > 0 && len(candidate) < len(original) {
		return candidate
	}
	return original
}
