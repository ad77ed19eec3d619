package almanac

import (
	"context"
	"html"
	"math"
	"strings"
	"unicode"

	"github.com/eringen/almanac/markdown"
)

// ReadingTime is a Renderer that estimates reading time from an entry body.
type ReadingTime struct {
	WordsPerMinute int
}

// Render counts the words of e's rendered body. Han, kana and hangul
// characters count as one word each.
func (r ReadingTime) Render(ctx context.Context, e Entry) (ReadingMeta, error) {
	if err := ctx.Err(); err != nil {
		return ReadingMeta{}, err
	}
	wpm := r.WordsPerMinute
	if wpm <= 0 {
		wpm = 200
	}
	text := html.UnescapeString(reHTMLTag.ReplaceAllString(markdown.ToHTML(e.Body), " "))
	words := CountWords(text)
	if words == 0 {
		return ReadingMeta{}, nil
	}
	minutes := int(math.Round(float64(words) / float64(wpm)))
	if minutes < 1 {
		minutes = 1
	}
	return ReadingMeta{Minutes: minutes, Words: words}, nil
}

// CountWords counts whitespace-separated words in text, counting every CJK
// character as a word of its own.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			count++
			inWord = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) && !strings.ContainsRune("'-_", r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
