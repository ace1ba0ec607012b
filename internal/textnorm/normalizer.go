// Package textnorm cleans extracted or recognized text. Every Normalizer is
// deterministic and idempotent: Normalize(Normalize(s)) == Normalize(s).
package textnorm

import (
	"fmt"
	"regexp"
	"strings"
)

// Normalizer rewrites text into its canonical form.
type Normalizer interface {
	Normalize(text string) string
}

const (
	NameSimple = "simple"
	NameCJK    = "cjk"
)

// New returns the normalizer registered under name. lex is only used by the
// cjk strategy; nil selects DefaultLexicon.
func New(name string, lex *Lexicon) (Normalizer, error) {
	switch name {
	case NameSimple, "":
		return Simple{}, nil
	case NameCJK:
		if lex == nil {
			lex = DefaultLexicon()
		}
		return NewCJK(lex), nil
	default:
		return nil, fmt.Errorf("unknown text normalizer %q", name)
	}
}

var (
	lineBreakSpaceRe = regexp.MustCompile(`[\t\f\r\v\p{Zs}]*\n[\t\f\r\v\p{Zs}]*`)
	blankLinesRe     = regexp.MustCompile(`\n{3,}`)
)

// Simple collapses whitespace around line breaks, caps blank lines at one and
// trims the result.
type Simple struct{}

func (Simple) Normalize(text string) string {
	return strings.TrimSpace(collapseLineBreaks(text))
}

func collapseLineBreaks(text string) string {
	text = lineBreakSpaceRe.ReplaceAllString(text, "\n")
	return blankLinesRe.ReplaceAllString(text, "\n\n")
}
