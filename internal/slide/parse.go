package slide

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxSectionMarks = 6

// Segment locates one recognized slide inside the parsed text. Offsets are
// byte offsets. The header occupies [HeaderStart, HeaderEnd) and the body
// [HeaderEnd, ContentEnd); ContentEnd is the next segment's HeaderStart or
// the end of the text.
type Segment struct {
	HeaderStart int
	HeaderEnd   int
	ContentEnd  int

	Index    int
	Total    int
	HasTotal bool
	Title    string
}

// headerRule describes one tier of header recognition.
type headerRule struct {
	// sectionMarks requires 1-6 leading '#'.
	sectionMarks bool
	// requireTotal rejects lines that do not claim "X/Y" or "X of Y".
	requireTotal bool
	// backslash accepts "X \ Y" as a separator.
	backslash bool
}

var (
	primaryRule  = headerRule{sectionMarks: true, backslash: true}
	fallbackRule = headerRule{requireTotal: true}
)

// Parse splits a script into slide records. Headers are found line by
// line; the text between two headers is the body of the first. When no
// '#' header exists anywhere, lines claiming "X/Y" or "X of Y" are used
// instead. Text without any header yields an empty list.
func Parse(text string) []Record {
	segs := Segments(text)
	out := make([]Record, 0, len(segs))
	for _, s := range segs {
		total := len(segs)
		if s.HasTotal {
			total = s.Total
		}
		out = append(out, Record{
			Index:      s.Index,
			Total:      total,
			Title:      s.Title,
			RawContent: strings.TrimSpace(text[s.HeaderEnd:s.ContentEnd]),
			Status:     StatusPending,
		})
	}
	return out
}

// Segments returns the header and body spans Parse would use, in order of
// appearance.
func Segments(text string) []Segment {
	segs := scan(text, primaryRule)
	if len(segs) == 0 {
		segs = scan(text, fallbackRule)
	}
	for i := range segs {
		if i+1 < len(segs) {
			segs[i].ContentEnd = segs[i+1].HeaderStart
		} else {
			segs[i].ContentEnd = len(text)
		}
	}
	return segs
}

func scan(text string, rule headerRule) []Segment {
	var out []Segment
	start := 0
	for {
		end := len(text)
		nl := strings.IndexByte(text[start:], '\n')
		if nl >= 0 {
			end = start + nl
		}
		line := strings.TrimSuffix(text[start:end], "\r")
		if seg, ok := rule.match(line); ok {
			seg.HeaderStart = start
			seg.HeaderEnd = start + len(line)
			out = append(out, seg)
		}
		if nl < 0 {
			return out
		}
		start = end + 1
	}
}

func (rule headerRule) match(line string) (Segment, bool) {
	c := &cursor{s: line}
	if rule.sectionMarks {
		n := c.skip(isSectionMark)
		if n < 1 || n > maxSectionMarks {
			return Segment{}, false
		}
	}
	c.skip(unicode.IsSpace)
	c.skip(isEmphasis)
	c.skip(unicode.IsSpace)

	// Label such as "Slide", "Infografica" or "Page"; its text is discarded.
	if c.skip(unicode.IsLetter) > 0 {
		c.skip(unicode.IsSpace)
	}

	index, ok := c.number()
	if !ok {
		return Segment{}, false
	}
	seg := Segment{Index: index}

	mark := c.i
	c.skip(unicode.IsSpace)
	if sep := rule.separator(c); sep != sepNone {
		c.skip(unicode.IsSpace)
		if total, ok := c.number(); ok {
			seg.Total = total
			seg.HasTotal = true
		} else if sep == sepWord {
			// A dangling "of" belongs to the title.
			c.i = mark
		}
	} else {
		c.i = mark
	}
	if rule.requireTotal && !seg.HasTotal {
		return Segment{}, false
	}

	c.skip(unicode.IsSpace)
	c.skip(isEmphasis)
	c.skip(isTitleSeparator)
	seg.Title = cleanTitle(c.rest(), index)
	return seg, true
}

type separatorKind int

const (
	sepNone separatorKind = iota
	sepMark
	sepWord
)

// separator consumes "/", "\" (when allowed) or the word "of".
func (rule headerRule) separator(c *cursor) separatorKind {
	rest := c.rest()
	switch {
	case strings.HasPrefix(rest, "/"):
		c.i++
		return sepMark
	case rule.backslash && strings.HasPrefix(rest, `\`):
		c.i++
		return sepMark
	case len(rest) >= 2 && strings.EqualFold(rest[:2], "of"):
		// "of" must stand alone so "1 Offerings" keeps its title.
		if r, _ := utf8.DecodeRuneInString(rest[2:]); unicode.IsLetter(r) {
			return sepNone
		}
		c.i += 2
		return sepWord
	}
	return sepNone
}

func cleanTitle(raw string, index int) string {
	t := strings.TrimSpace(raw)
	t = strings.TrimRightFunc(t, isEmphasis)
	t = strings.TrimSpace(t)
	if !strings.ContainsFunc(t, isWordRune) {
		return fmt.Sprintf("Slide %d", index)
	}
	return t
}

type cursor struct {
	s string
	i int
}

func (c *cursor) rest() string { return c.s[c.i:] }

// skip advances past runes matching f and returns how many it consumed.
func (c *cursor) skip(f func(rune) bool) int {
	n := 0
	for c.i < len(c.s) {
		r, w := utf8.DecodeRuneInString(c.s[c.i:])
		if !f(r) {
			break
		}
		c.i += w
		n++
	}
	return n
}

func (c *cursor) number() (int, bool) {
	start := c.i
	for c.i < len(c.s) && c.s[c.i] >= '0' && c.s[c.i] <= '9' {
		c.i++
	}
	if c.i == start {
		return 0, false
	}
	n, err := strconv.Atoi(c.s[start:c.i])
	if err != nil {
		c.i = start
		return 0, false
	}
	return n, true
}

func isSectionMark(r rune) bool { return r == '#' }

func isEmphasis(r rune) bool { return r == '*' || r == '_' }

func isTitleSeparator(r rune) bool {
	return r == ':' || r == '-' || unicode.IsSpace(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
