package textnorm

import (
	"strings"
	"unicode"
)

// Lexicon holds the word lists the cjk normalizer uses as evidence.
//
// Terms are known words: a space between two CJK characters is kept only
// when the text before it ends with a term or the text after it starts with
// one. SentenceEndings are suffixes that mark the end of a sentence when a
// line break follows them.
type Lexicon struct {
	Terms           []string
	SentenceEndings []string
}

// DefaultLexicon returns a fresh copy of the built-in Korean word lists.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Terms: []string{
			"그리고", "그러나", "하지만", "그래서", "따라서", "또한", "또는", "그러므로",
			"때문에", "위하여", "위해서", "위한", "대하여", "대한", "관련된", "관하여",
			"경우에", "경우", "이후", "이전", "통하여", "통해", "있는", "없는", "있다", "없다",
			"한다", "된다", "하는", "되는", "합니다", "됩니다", "입니다", "있습니다", "없습니다",
			"다음과", "같이", "같은", "모든", "각각", "사용자", "시스템", "서비스",
		},
		SentenceEndings: []string{
			"습니다", "니다", "다", "요", "죠", "까", "음", "함", "됨",
		},
	}
}

// clean drops empty terms and terms containing whitespace, which could never
// match once spacing has been rewritten.
func (l *Lexicon) clean() *Lexicon {
	return &Lexicon{
		Terms:           cleanWords(l.Terms),
		SentenceEndings: cleanWords(l.SentenceEndings),
	}
}

func cleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" || strings.IndexFunc(w, unicode.IsSpace) >= 0 {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (l *Lexicon) boundaryAt(before, after string) bool {
	for _, t := range l.Terms {
		if strings.HasSuffix(before, t) || strings.HasPrefix(after, t) {
			return true
		}
	}
	return false
}

func (l *Lexicon) endsSentence(before string) bool {
	for _, e := range l.SentenceEndings {
		if strings.HasSuffix(before, e) {
			return true
		}
	}
	return false
}
