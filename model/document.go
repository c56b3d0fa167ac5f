package model

// Document is the global token stream of a form.
// Token y-coordinates are shifted by the cumulative height of the preceding
// pages, so ascending Y is the reading order of the whole document.
type Document struct {
	Tokens []Token    `json:"tokens"`
	Pages  []PageInfo `json:"pages"`
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{
		Tokens: make([]Token, 0),
		Pages:  make([]PageInfo, 0),
	}
}

// PageCount returns the number of pages in the document
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// TotalHeight returns the summed height of all pages
func (d *Document) TotalHeight() int {
	total := 0
	for _, p := range d.Pages {
		total += p.Height
	}
	return total
}

// PageOffset returns the y offset applied to the page with the given index,
// or -1 if the page is not part of the document.
func (d *Document) PageOffset(index int) int {
	offset := 0
	for _, p := range d.Pages {
		if p.Index == index {
			return offset
		}
		offset += p.Height
	}
	return -1
}

// TokensOfKind returns all tokens of the given kind in stream order
func (d *Document) TokensOfKind(kind Kind) []Token {
	var out []Token
	for _, t := range d.Tokens {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// PageTokens returns the tokens of one page with the page offset removed,
// i.e. in the coordinate space of that page's raster image.
func (d *Document) PageTokens(index int) []Token {
	offset := d.PageOffset(index)
	if offset < 0 {
		return nil
	}
	var out []Token
	for _, t := range d.Tokens {
		if t.Page == index {
			out = append(out, t.WithOffset(-offset))
		}
	}
	return out
}

// PageAt returns the position in Pages and the offset of the page
// containing the global y coordinate
func (d *Document) PageAt(y int) (pos, offset int, ok bool) {
	for i, p := range d.Pages {
		if y >= offset && y < offset+p.Height {
			return i, offset, true
		}
		offset += p.Height
	}
	return 0, 0, false
}
