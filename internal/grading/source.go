package grading

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Item is one gradable input placeholder with the answer authored on it.
type Item struct {
	ID        string  `json:"id"`       // input-<n>, n counts every placeholder in the markup
	Position  int     `json:"position"` // index among gradable items; submissions pair by this
	Expected  string  `json:"expected"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// AnswerSource produces the ordered (id, expected answer) pairs of a
// worksheet. Matching and scoring only ever see this view of the markup.
type AnswerSource interface {
	Items(markup string) ([]Item, error)
}

const (
	DefaultAnswerAttr     = "data-answer"
	DefaultToleranceAttr  = "data-tolerance"
	DefaultMaxMarkupBytes = 2 << 20
)

// HTMLSource reads answers from HTML placeholders (<input>, <select>,
// <textarea>) that carry the expected answer as an attribute.
type HTMLSource struct {
	AnswerAttr    string
	ToleranceAttr string
	MaxBytes      int // 0 disables the size check
}

func NewHTMLSource() *HTMLSource {
	return &HTMLSource{
		AnswerAttr:    DefaultAnswerAttr,
		ToleranceAttr: DefaultToleranceAttr,
		MaxBytes:      DefaultMaxMarkupBytes,
	}
}

// input types that never hold a typed answer
var nonAnswerInputTypes = map[string]bool{
	"hidden":   true,
	"submit":   true,
	"button":   true,
	"reset":    true,
	"image":    true,
	"checkbox": true,
	"radio":    true,
	"file":     true,
}

// Items walks the markup in document order. Placeholders without an
// expected answer, and disabled or read-only ones, are skipped silently.
func (s *HTMLSource) Items(markup string) ([]Item, error) {
	var (
		items    []Item
		seen     int
		fieldset []bool // open <fieldset> elements, true when disabled
		disabled int
	)
	err := s.walk(markup, func(z *html.Tokenizer, tt html.TokenType, raw []byte) {
		name, hasAttr := z.TagName()
		tag := string(name)

		if tag == "fieldset" {
			if tt == html.EndTagToken {
				if n := len(fieldset); n > 0 {
					if fieldset[n-1] {
						disabled--
					}
					fieldset = fieldset[:n-1]
				}
				return
			}
			attrs := readAttrs(z, hasAttr)
			_, off := attrs["disabled"]
			if tt == html.StartTagToken {
				fieldset = append(fieldset, off)
				if off {
					disabled++
				}
			}
			return
		}

		if tt == html.EndTagToken || !isPlaceholder(tag) {
			return
		}
		attrs := readAttrs(z, hasAttr)
		if tag == "input" && nonAnswerInputTypes[strings.ToLower(strings.TrimSpace(attrs["type"]))] {
			return
		}
		id := fmt.Sprintf("input-%d", seen)
		seen++

		if disabled > 0 {
			return
		}
		if _, ok := attrs["disabled"]; ok {
			return
		}
		if _, ok := attrs["readonly"]; ok {
			return
		}
		expected := strings.TrimSpace(attrs[s.answerAttr()])
		if expected == "" {
			return
		}
		items = append(items, Item{
			ID:        id,
			Position:  len(items),
			Expected:  expected,
			Tolerance: parseTolerance(attrs[s.toleranceAttr()]),
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Strip returns the markup with answer and tolerance attributes removed
// from every tag, for serving worksheets to students. Everything else is
// passed through byte for byte.
func (s *HTMLSource) Strip(markup string) (string, error) {
	var b strings.Builder
	b.Grow(len(markup))
	drop := map[string]bool{s.answerAttr(): true, s.toleranceAttr(): true}

	err := s.walkAll(markup, func(z *html.Tokenizer, tt html.TokenType, raw []byte) {
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.Write(raw)
			return
		}
		tok := z.Token()
		kept := tok.Attr[:0]
		for _, a := range tok.Attr {
			if !drop[a.Key] {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(tok.Attr) {
			b.Write(raw)
			return
		}
		tok.Attr = kept
		b.WriteString(tok.String())
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// StripAnswers strips data-answer / data-tolerance with the default source.
func StripAnswers(markup string) (string, error) {
	return NewHTMLSource().Strip(markup)
}

// --- tokenizer plumbing ---

type tokenFunc func(z *html.Tokenizer, tt html.TokenType, raw []byte)

// walk calls fn for tag tokens only.
func (s *HTMLSource) walk(markup string, fn tokenFunc) error {
	return s.walkAll(markup, func(z *html.Tokenizer, tt html.TokenType, raw []byte) {
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			fn(z, tt, raw)
		}
	})
}

// walkAll validates and tokenizes markup, calling fn for every token. raw
// is a private copy of the token's bytes.
func (s *HTMLSource) walkAll(markup string, fn tokenFunc) error {
	if !utf8.ValidString(markup) {
		return &MarkupParseError{Offset: firstInvalidUTF8(markup), Reason: "invalid UTF-8"}
	}
	if s.MaxBytes > 0 && len(markup) > s.MaxBytes {
		return &MarkupParseError{Offset: -1, Reason: fmt.Sprintf("document exceeds %d bytes", s.MaxBytes)}
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	offset := 0
	for {
		tt := z.Next()
		raw := append([]byte(nil), z.Raw()...)
		if tt == html.ErrorToken {
			err := z.Err()
			if !errors.Is(err, io.EOF) {
				return &MarkupParseError{Offset: offset, Reason: "tokenizer failure", Err: err}
			}
			if len(raw) > 0 {
				// the input ended inside a tag
				return &MarkupParseError{Offset: offset, Reason: fmt.Sprintf("unterminated tag %q", truncate(string(raw), 40))}
			}
			return nil
		}
		fn(z, tt, raw)
		offset += len(raw)
	}
}

func isPlaceholder(tag string) bool {
	return tag == "input" || tag == "select" || tag == "textarea"
}

func readAttrs(z *html.Tokenizer, more bool) map[string]string {
	attrs := map[string]string{}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		attrs[string(k)] = string(v)
	}
	return attrs
}

func (s *HTMLSource) answerAttr() string {
	if s.AnswerAttr == "" {
		return DefaultAnswerAttr
	}
	return strings.ToLower(s.AnswerAttr)
}

func (s *HTMLSource) toleranceAttr() string {
	if s.ToleranceAttr == "" {
		return DefaultToleranceAttr
	}
	return strings.ToLower(s.ToleranceAttr)
}

func parseTolerance(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	f, ok := parseDecimal(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}

func firstInvalidUTF8(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
