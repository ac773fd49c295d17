// Package prefixer adds vendor-prefixed copies of CSS declarations that
// older browsers only understand with a prefix.
package prefixer

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Prefixer = (*Prefixer)(nil)

// propertyPrefixes lists the prefixes emitted before an unprefixed property.
var propertyPrefixes = map[string][]string{
	"appearance":           {"-webkit-", "-moz-"},
	"backdrop-filter":      {"-webkit-"},
	"box-decoration-break": {"-webkit-"},
	"clip-path":            {"-webkit-"},
	"hyphens":              {"-webkit-", "-ms-"},
	"mask":                 {"-webkit-"},
	"mask-image":           {"-webkit-"},
	"tab-size":             {"-moz-"},
	"text-size-adjust":     {"-webkit-", "-moz-", "-ms-"},
	"user-select":          {"-webkit-", "-moz-", "-ms-"},
}

// valuePrefixes lists property values that need a prefixed value.
var valuePrefixes = map[string]map[string][]string{
	"position": {"sticky": {"-webkit-"}},
}

// Prefixer implements ports.Prefixer on top of the tdewolff CSS parser.
type Prefixer struct{}

// New creates a new Prefixer.
func New() *Prefixer {
	return &Prefixer{}
}

type declaration struct {
	property string
	value    string
	custom   bool
}

// Prefix returns src re-serialized in expanded form with vendor-prefixed
// declarations inserted before their standard counterparts. Prefixes that a
// block already declares are not duplicated, so the result is stable when
// prefixed again.
func (p *Prefixer) Prefix(src []byte) ([]byte, error) {
	w := &writer{}
	parser := css.NewParser(parse.NewInputBytes(src), false)

	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); !errors.Is(err, io.EOF) {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrPrefixFailed.Error()), "offset", parser.Offset())
			}
			return w.buf.Bytes(), nil
		case css.CommentGrammar:
			w.line(string(data))
		case css.AtRuleGrammar:
			w.line(joinHead(data, parser.Values()) + ";")
		case css.BeginAtRuleGrammar:
			w.open(joinHead(data, parser.Values()))
		case css.BeginRulesetGrammar:
			w.open(tokens(parser.Values()))
		case css.DeclarationGrammar:
			w.decls = append(w.decls, declaration{
				property: string(data),
				value:    strings.TrimSpace(tokens(parser.Values())),
			})
		case css.CustomPropertyGrammar:
			w.decls = append(w.decls, declaration{
				property: string(data),
				value:    strings.TrimSpace(tokens(parser.Values())),
				custom:   true,
			})
		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			w.close()
		case css.TokenGrammar:
			if s := strings.TrimSpace(string(data)); s != "" {
				w.line(s)
			}
		case css.QualifiedRuleGrammar:
		}
	}
}

type writer struct {
	buf   bytes.Buffer
	depth int
	decls []declaration
}

func (w *writer) line(s string) {
	w.flush()
	w.buf.WriteString(strings.Repeat("  ", w.depth))
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *writer) open(head string) {
	w.line(strings.TrimSpace(head) + " {")
	w.depth++
}

func (w *writer) close() {
	w.flush()
	if w.depth > 0 {
		w.depth--
	}
	w.line("}")
}

// flush writes the pending declarations of the current block.
func (w *writer) flush() {
	if len(w.decls) == 0 {
		return
	}
	decls := w.decls
	w.decls = nil

	present := make(map[string]bool, len(decls))
	for _, d := range decls {
		present[d.property+":"+d.value] = true
		present[d.property] = true
	}

	indent := strings.Repeat("  ", w.depth)
	emit := func(property, value string) {
		w.buf.WriteString(indent)
		w.buf.WriteString(property)
		w.buf.WriteString(": ")
		w.buf.WriteString(value)
		w.buf.WriteString(";\n")
	}

	for _, d := range decls {
		if d.custom {
			w.buf.WriteString(indent + d.property + ":" + d.value + ";\n")
			continue
		}
		for _, prefix := range propertyPrefixes[d.property] {
			if !present[prefix+d.property] {
				emit(prefix+d.property, d.value)
			}
		}
		for _, prefix := range valuePrefixes[d.property][strings.ToLower(d.value)] {
			if !present[d.property+":"+prefix+d.value] {
				emit(d.property, prefix+d.value)
			}
		}
		emit(d.property, d.value)
	}
}

func joinHead(name []byte, values []css.Token) string {
	rest := strings.TrimSpace(tokens(values))
	if rest == "" {
		return string(name)
	}
	return string(name) + " " + rest
}

func tokens(values []css.Token) string {
	var sb strings.Builder
	for _, v := range values {
		sb.Write(v.Data)
	}
	return sb.String()
}
