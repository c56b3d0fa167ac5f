package grammar

import "github.com/kimodri/form-filler/model"

// syncKinds are the kinds panic recovery resumes at
var syncKinds = [...]model.Kind{model.SectionTitle, model.FieldLabel, model.Note}

// cursor is the parser state threaded through the rule functions.
// Rules take a cursor and return the advanced one; nothing is shared.
type cursor struct {
	tokens   []model.Token
	pos      int
	section  *string
	diags    []Diagnostic
	mappings []model.FieldMapping
	tree     Tree
}

// Parse recognizes a document token stream:
//
//	Document    := FORM_TITLE SectionList
//	SectionList := Section*
//	Section     := SECTION_TITLE? SectionBody
//	SectionBody := FormElement*
//	FormElement := Field | NOTE
//	Field       := FIELD_LABEL FIELD_SPACE
//
// Parse never fails; structural errors are reported in the result.
func Parse(tokens []model.Token) *Result {
	c := cursor{tokens: tokens}

	c, ok := document(c)
	if !c.done() {
		tok := c.tokens[c.pos]
		c.diags = append(c.diags, Diagnostic{
			Code:     TrailingTokens,
			Found:    tok.Kind,
			Position: c.pos,
			Token:    &tok,
		})
		ok = false
	}

	tree := c.tree
	return &Result{
		Accepted: ok && len(c.diags) == 0,
		Errors:   nonNil(c.diags),
		Mappings: nonNil(c.mappings),
		Tree:     &tree,
	}
}

// document := FORM_TITLE SectionList
func document(c cursor) (cursor, bool) {
	c, title, titleOK := expect(c, model.FormTitle)
	if titleOK {
		c.tree.Title = &title
	}
	c, listOK := sectionList(c)
	return c, titleOK && listOK
}

// sectionList := Section*
func sectionList(c cursor) (cursor, bool) {
	ok := true
	for c.at(model.SectionTitle, model.FieldLabel, model.Note) {
		var sectionOK bool
		c, sectionOK = section(c)
		ok = ok && sectionOK
	}
	return c, ok
}

// section := SECTION_TITLE? SectionBody
func section(c cursor) (cursor, bool) {
	var s Section
	if c.at(model.SectionTitle) {
		title := c.lookahead()
		c.pos++
		text := title.Value
		c.section = &text
		s.Title = &title
	}
	c.tree.Sections = append(c.tree.Sections, s)
	return sectionBody(c)
}

// sectionBody := FormElement*
func sectionBody(c cursor) (cursor, bool) {
	ok := true
	for c.at(model.FieldLabel, model.Note) {
		var elementOK bool
		c, elementOK = formElement(c)
		ok = ok && elementOK
	}
	return c, ok
}

// formElement := Field | NOTE
func formElement(c cursor) (cursor, bool) {
	if c.at(model.FieldLabel) {
		return field(c)
	}
	note := c.lookahead()
	c.pos++
	c = c.addElement(Element{Note: &note})
	return c, true
}

// field := FIELD_LABEL FIELD_SPACE
func field(c cursor) (cursor, bool) {
	label := c.lookahead()
	c.pos++

	c, space, ok := expect(c, model.FieldSpace)
	if !ok {
		return c, false
	}

	c.mappings = append(c.mappings, model.FieldMapping{
		Section:       c.section,
		Label:         label.Value,
		LabelBox:      label.BBox,
		FillTargetBox: space.BBox,
	})
	c = c.addElement(Element{Field: &Field{Label: label, Space: space}})
	return c, true
}

// expect consumes a required terminal. On mismatch it records a diagnostic
// and skips to the next synchronizing token or end of input.
func expect(c cursor, kind model.Kind) (cursor, model.Token, bool) {
	if c.at(kind) {
		tok := c.lookahead()
		c.pos++
		return c, tok, true
	}

	d := Diagnostic{Code: UnexpectedEnd, Expected: kind, Position: c.pos}
	if !c.done() {
		tok := c.tokens[c.pos]
		d.Code = UnexpectedToken
		d.Found = tok.Kind
		d.Token = &tok
	}
	c.diags = append(c.diags, d)

	return recoverSync(c), model.Token{}, false
}

// recoverSync discards tokens until a synchronizing kind or end of input
func recoverSync(c cursor) cursor {
	for !c.done() && !c.at(syncKinds[:]...) {
		c.pos++
	}
	return c
}

// at reports whether the lookahead is one of kinds
func (c cursor) at(kinds ...model.Kind) bool {
	if c.done() {
		return false
	}
	current := c.tokens[c.pos].Kind
	for _, k := range kinds {
		if current == k {
			return true
		}
	}
	return false
}

// lookahead returns the current token; callers move pos themselves
func (c cursor) lookahead() model.Token {
	return c.tokens[c.pos]
}

func (c cursor) done() bool {
	return c.pos >= len(c.tokens)
}

// addElement appends to the current section, opening an untitled one at root
func (c cursor) addElement(e Element) cursor {
	if len(c.tree.Sections) == 0 {
		c.tree.Sections = append(c.tree.Sections, Section{})
	}
	last := len(c.tree.Sections) - 1
	c.tree.Sections[last].Elements = append(c.tree.Sections[last].Elements, e)
	return c
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
