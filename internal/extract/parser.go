package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scrapesynth/internal/model"
)

// noiseSelector lists the elements removed before text extraction.
const noiseSelector = "script, style, noscript, iframe, svg, form, footer, nav"

// TruncationMarker is appended to body text cut at the character cap.
const TruncationMarker = "..."

// Parsed is the content extracted from one document.
type Parsed struct {
	Title  string
	Body   string
	Images []model.Image
}

// Parser extracts normalized content from markup.
type Parser struct {
	maxBodyChars int
	maxImages    int
}

// NewParser creates a Parser capping body text at maxBodyChars characters
// and the image list at maxImages entries.
func NewParser(maxBodyChars, maxImages int) *Parser {
	return &Parser{maxBodyChars: maxBodyChars, maxImages: maxImages}
}

// Parse reads markup from r.
func (p *Parser) Parse(r io.Reader) (Parsed, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Parsed{}, err
	}

	// Read before noise removal.
	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(noiseSelector).Remove()

	body := truncate(collapseSpace(doc.Find("body").Text()), p.maxBodyChars)

	images := make([]model.Image, 0, p.maxImages)
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(images) >= p.maxImages {
			return false
		}
		src, ok := s.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		alt, _ := s.Attr("alt")
		images = append(images, model.Image{Src: src, Alt: alt})
		return true
	})

	return Parsed{Title: title, Body: body, Images: images}, nil
}

// truncate cuts s to limit characters and appends TruncationMarker when it
// had to cut.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + TruncationMarker
}

// collapseSpace replaces every run of Unicode white space, including
// non-breaking spaces, with a single space and trims the ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
