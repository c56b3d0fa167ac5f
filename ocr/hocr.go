package ocr

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/kimodri/form-filler/model"
)

// HOCRPage is one ocr_page element of an hOCR document
type HOCRPage struct {
	Width  int
	Height int
	Words  []model.Word
}

// hocrState tracks the enclosing block, paragraph and line while walking
type hocrState struct {
	pages []HOCRPage
	block int
	par   int
	line  int
}

// ParseHOCR reads an hOCR document such as the output of
// `tesseract page.png out hocr`. Word ids come from the ocr_carea, ocr_par
// and ocr_line nesting; boxes and confidence from the title properties.
func ParseHOCR(r io.Reader) ([]HOCRPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	s := &hocrState{}
	s.walk(doc)

	if len(s.pages) == 0 {
		return nil, fmt.Errorf("hOCR document has no ocr_page elements")
	}
	return s.pages, nil
}

func (s *hocrState) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		classes := strings.Fields(getAttr(n, "class"))
		props := parseTitle(getAttr(n, "title"))

		switch {
		case hasClass(classes, "ocr_page"):
			page := HOCRPage{}
			if box, ok := props.bbox(); ok {
				page.Width, page.Height = box.W, box.H
			}
			s.pages = append(s.pages, page)
			s.block, s.par, s.line = 0, 0, 0
		case hasClass(classes, "ocr_carea"):
			s.block++
			s.par, s.line = 0, 0
		case hasClass(classes, "ocr_par"):
			s.par++
			s.line = 0
		case hasClass(classes, "ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"):
			s.line++
		case hasClass(classes, "ocrx_word"):
			s.addWord(n, props)
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
}

// defaultHOCRConfidence is used for words without x_wconf
const defaultHOCRConfidence = 100.0

func (s *hocrState) addWord(n *html.Node, props titleProps) {
	if len(s.pages) == 0 {
		s.pages = append(s.pages, HOCRPage{})
	}
	box, ok := props.bbox()
	if !ok {
		return
	}

	confidence := defaultHOCRConfidence
	if v, ok := props["x_wconf"]; ok && len(v) > 0 {
		if f, err := strconv.ParseFloat(v[0], 64); err == nil {
			confidence = f
		}
	}

	page := &s.pages[len(s.pages)-1]
	page.Words = append(page.Words, model.Word{
		Text:       strings.TrimSpace(nodeText(n)),
		Confidence: confidence,
		Left:       box.X,
		Top:        box.Y,
		Width:      box.W,
		Height:     box.H,
		BlockNum:   s.block,
		ParNum:     s.par,
		LineNum:    s.line,
	})
}

// titleProps holds the semicolon separated properties of a title attribute
type titleProps map[string][]string

func parseTitle(title string) titleProps {
	props := titleProps{}
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

// bbox decodes "bbox x0 y0 x1 y1"
func (p titleProps) bbox() (model.BBox, bool) {
	v, ok := p["bbox"]
	if !ok || len(v) != 4 {
		return model.BBox{}, false
	}
	var edges [4]int
	for i, s := range v {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.BBox{}, false
		}
		edges[i] = n
	}
	return model.NewBBoxFromEdges(edges[0], edges[1], edges[2], edges[3]), true
}

// getAttr returns the value of an attribute, or empty string if not found
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasClass(classes []string, names ...string) bool {
	for _, c := range classes {
		for _, name := range names {
			if c == name {
				return true
			}
		}
	}
	return false
}

// nodeText returns the concatenated text content of a node
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

// PageRecognizer is implemented by engines whose output depends on which
// page is being read rather than on the pixels alone
type PageRecognizer interface {
	RecognizePage(ctx context.Context, page int, img image.Image) ([]model.Word, error)
}

// HOCRFiles serves pre-computed hOCR pages. Page i of the document is the
// i-th ocr_page across the files, in the order given.
type HOCRFiles struct {
	pages []HOCRPage
}

// NewHOCRFiles parses every file up front
func NewHOCRFiles(paths ...string) (*HOCRFiles, error) {
	engine := &HOCRFiles{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open hOCR file: %w", err)
		}
		pages, err := ParseHOCR(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		engine.pages = append(engine.pages, pages...)
	}
	return engine, nil
}

// NewHOCRPages serves already parsed pages
func NewHOCRPages(pages []HOCRPage) *HOCRFiles {
	return &HOCRFiles{pages: pages}
}

// PageCount returns the number of hOCR pages available
func (h *HOCRFiles) PageCount() int {
	return len(h.pages)
}

// RecognizePage returns the words of the given 0-based page
func (h *HOCRFiles) RecognizePage(ctx context.Context, page int, img image.Image) ([]model.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 0 || page >= len(h.pages) {
		return nil, fmt.Errorf("no hOCR data for page %d (have %d pages)", page+1, len(h.pages))
	}
	words := make([]model.Word, len(h.pages[page].Words))
	copy(words, h.pages[page].Words)
	return words, nil
}

// Recognize returns the words of the only page. Multi-page sources must be
// read through RecognizePage.
func (h *HOCRFiles) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	if len(h.pages) != 1 {
		return nil, fmt.Errorf("hOCR engine has %d pages; a page index is required", len(h.pages))
	}
	return h.RecognizePage(ctx, 0, img)
}
