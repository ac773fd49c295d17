// Package minify minifies stylesheets, scripts and SVG images.
package minify

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Minifier = (*Minifier)(nil)

const (
	mediaCSS = "text/css"
	mediaJS  = "application/javascript"
	mediaSVG = "image/svg+xml"
)

// Minifier implements ports.Minifier with tdewolff/minify.
type Minifier struct {
	m *minify.M
}

// New creates a Minifier. A compatibility of "ie8" keeps the CSS output
// within CSS2 syntax.
func New(compatibility string) *Minifier {
	cssMinifier := &css.Minifier{}
	if compatibility == domain.DefaultCompatibility {
		cssMinifier.Version = 2
	}

	m := minify.New()
	m.Add(mediaCSS, cssMinifier)
	m.Add(mediaJS, &js.Minifier{})
	m.Add(mediaSVG, &svg.Minifier{})
	return &Minifier{m: m}
}

// MinifyCSS minifies a stylesheet.
func (m *Minifier) MinifyCSS(src []byte) ([]byte, error) {
	return m.bytes(mediaCSS, src)
}

// MinifyJS minifies a script.
func (m *Minifier) MinifyJS(src []byte) ([]byte, error) {
	return m.bytes(mediaJS, src)
}

// MinifySVG minifies an SVG document.
func (m *Minifier) MinifySVG(src []byte) ([]byte, error) {
	return m.bytes(mediaSVG, src)
}

func (m *Minifier) bytes(mediatype string, src []byte) ([]byte, error) {
	out, err := m.m.Bytes(mediatype, src)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrMinifyFailed.Error()), "media_type", mediatype)
	}
	return out, nil
}
