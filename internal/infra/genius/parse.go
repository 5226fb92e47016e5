package genius

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/osa030/versebox/internal/domain/song"
)

// annotationPattern matches section markers such as [Chorus] or [Verse 1: Artist].
var annotationPattern = regexp.MustCompile(`\[.*?\]`)

// lyricsClassPrefix is the styled-components class on lyrics containers.
const lyricsClassPrefix = "Lyrics__Container"

// ParseVerses extracts verses from a Genius lyrics page.
// Within a lyrics container a single <br> ends a line and two consecutive <br>
// end a verse. Nested <div> elements hold ads and are dropped; other tags are
// unwrapped to their text.
func ParseVerses(r io.Reader, removeAnnotations bool) ([]song.Verse, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &verseParser{removeAnnotations: removeAnnotations}
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if isLyricsContainer(n) {
			p.container(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return p.verses, nil
}

func isLyricsContainer(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "data-lyrics-container":
			if a.Val == "true" {
				return true
			}
		case "class":
			for _, cls := range strings.Fields(a.Val) {
				if strings.HasPrefix(cls, lyricsClassPrefix) {
					return true
				}
			}
		}
	}
	return false
}

type verseParser struct {
	removeAnnotations bool

	verses []song.Verse
	lines  []string
	line   strings.Builder
	breaks int
}

// container parses one lyrics container. Container boundaries end a verse.
func (p *verseParser) container(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
	p.endLine()
	p.endVerse()
}

func (p *verseParser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" && p.breaks > 0 {
			return
		}
		p.line.WriteString(n.Data)
		p.breaks = 0
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			p.breaks++
			if p.breaks == 1 {
				p.endLine()
			} else {
				p.endVerse()
			}
			return
		case atom.Div:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c)
		}
	}
}

func (p *verseParser) endLine() {
	text := p.line.String()
	p.line.Reset()
	if p.removeAnnotations {
		text = annotationPattern.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	if text != "" {
		p.lines = append(p.lines, text)
	}
}

func (p *verseParser) endVerse() {
	if len(p.lines) > 0 {
		p.verses = append(p.verses, song.Verse{Lines: p.lines})
	}
	p.lines = nil
}
