package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	controlRe     = regexp.MustCompile(`[\t\f\r\v]`)
	spaceRunRe    = regexp.MustCompile(`\p{Zs}+`)
	percentRe     = regexp.MustCompile(`(\d) +%`)
	codeRe        = regexp.MustCompile(`[\[(] *[A-Za-z] *\d[\d ]*[\])]`)
	spaceBeforeRe = regexp.MustCompile(` +([.,?!])`)
)

// CJK is a normalizer tuned for OCR output of Korean (and other CJK) text.
// On top of the Simple passes it folds full-width forms, merges wrapped
// lines, repairs spaced-out codes and percentages, decides spaces between CJK
// characters with a Lexicon and fixes spacing around sentence punctuation.
type CJK struct {
	lex *Lexicon
}

// NewCJK returns a CJK normalizer using lex.
func NewCJK(lex *Lexicon) *CJK {
	return &CJK{lex: lex.clean()}
}

func (c *CJK) Normalize(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = norm.NFC.String(width.Fold.String(text))
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = collapseLineBreaks(text)
	text = c.mergeWrappedLines(text)
	text = percentRe.ReplaceAllString(text, "${1}%")
	text = codeRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
	text = c.resolveCJKSpaces(text)
	text = fixPunctuationSpacing(text)
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// mergeWrappedLines rewrites each lone line break that follows a word or a
// sentence end and precedes a word. After a sentence end it becomes a
// paragraph break, otherwise a space. Breaks after other punctuation stay.
func (c *CJK) mergeWrappedLines(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	for i, r := range text {
		if r != '\n' {
			out.WriteRune(r)
			continue
		}
		before := out.String()
		prev, _ := utf8.DecodeLastRuneInString(before)
		next, _ := utf8.DecodeRuneInString(text[i+1:])
		if before == "" || !(isWord(prev) || isSentenceEnd(prev)) || !isWord(next) {
			out.WriteRune(r)
			continue
		}
		if isSentenceEnd(prev) || c.lex.endsSentence(before) {
			out.WriteString("\n\n")
		} else {
			out.WriteByte(' ')
		}
	}
	return out.String()
}

// resolveCJKSpaces removes a space between two CJK characters unless the
// lexicon marks a word boundary there.
func (c *CJK) resolveCJKSpaces(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	for i, r := range text {
		if r == ' ' {
			prev, _ := utf8.DecodeLastRuneInString(out.String())
			after := text[i+1:]
			next, _ := utf8.DecodeRuneInString(after)
			if isCJK(prev) && isCJK(next) && !c.lex.boundaryAt(out.String(), after) {
				continue
			}
		}
		out.WriteRune(r)
	}
	return out.String()
}

// fixPunctuationSpacing drops spaces before . , ? ! and puts exactly one
// space after them when a word follows. A dot or comma with ASCII letters or
// digits on both sides (3.14, 5,000, a.out) is left joined.
func fixPunctuationSpacing(text string) string {
	text = spaceBeforeRe.ReplaceAllString(text, "$1")

	var out strings.Builder
	out.Grow(len(text) + len(text)/16)
	prev := rune(0)
	for i, r := range text {
		out.WriteRune(r)
		if isSpacedPunct(r) {
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			joined := (r == '.' || r == ',') && isASCIIAlnum(prev) && isASCIIAlnum(next)
			if isWord(next) && !joined {
				out.WriteByte(' ')
			}
		}
		prev = r
	}
	return out.String()
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '?', '!', '。':
		return true
	}
	return false
}

func isSpacedPunct(r rune) bool {
	switch r {
	case '.', ',', '?', '!':
		return true
	}
	return false
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIIAlnum(r rune) bool {
	return r < utf8.RuneSelf && (r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

// isCJK reports Han, Kana and precomposed Hangul. Conjoining jamo are
// excluded so that removing a space never creates a new NFC composition.
func isCJK(r rune) bool {
	switch {
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana):
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul syllables
		return true
	case r >= 0x3131 && r <= 0x318E: // Hangul compatibility jamo
		return true
	}
	return false
}
