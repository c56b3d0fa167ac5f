package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the grammar terminal a token represents.
// The set is closed; code switching on Kind must handle every value.
type Kind int

const (
	KindUnknown Kind = iota
	FormTitle
	SectionTitle
	FieldLabel
	FieldSpace
	Note
)

// FieldSpacePlaceholder is the value carried by every FIELD_SPACE token.
const FieldSpacePlaceholder = "____"

// String returns the terminal name of the kind
func (k Kind) String() string {
	switch k {
	case FormTitle:
		return "FORM_TITLE"
	case SectionTitle:
		return "SECTION_TITLE"
	case FieldLabel:
		return "FIELD_LABEL"
	case FieldSpace:
		return "FIELD_SPACE"
	case Note:
		return "NOTE"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether k is one of the five token kinds
func (k Kind) IsValid() bool {
	return k >= FormTitle && k <= Note
}

// ParseKind converts a terminal name back to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FORM_TITLE":
		return FormTitle, nil
	case "SECTION_TITLE":
		return SectionTitle, nil
	case "FIELD_LABEL":
		return FieldLabel, nil
	case "FIELD_SPACE":
		return FieldSpace, nil
	case "NOTE":
		return Note, nil
	default:
		return KindUnknown, fmt.Errorf("unknown token kind %q", s)
	}
}

// MarshalJSON encodes the kind as its terminal name
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a terminal name
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Token is one classified, bounded unit of form content.
// Tokens are passed by value; reclassification produces a new Token.
type Token struct {
	Kind  Kind
	Value string
	BBox  BBox
	Page  int // 0-based page index
}

// tokenJSON is the flat wire shape {kind, value, x, y, w, h, page}
type tokenJSON struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
	Page  int    `json:"page"`
}

// MarshalJSON encodes the token in its flat presentation form
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenJSON{
		Kind:  t.Kind,
		Value: t.Value,
		X:     t.BBox.X,
		Y:     t.BBox.Y,
		W:     t.BBox.W,
		H:     t.BBox.H,
		Page:  t.Page,
	})
}

// UnmarshalJSON decodes the flat presentation form
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw tokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Token{
		Kind:  raw.Kind,
		Value: raw.Value,
		BBox:  NewBBox(raw.X, raw.Y, raw.W, raw.H),
		Page:  raw.Page,
	}
	return nil
}

// NewFieldSpace creates a FIELD_SPACE token for a detected blank
func NewFieldSpace(bbox BBox, page int) Token {
	return Token{Kind: FieldSpace, Value: FieldSpacePlaceholder, BBox: bbox, Page: page}
}

// WithKind returns a copy of the token tagged with kind
func (t Token) WithKind(kind Kind) Token {
	t.Kind = kind
	return t
}

// WithOffset returns a copy of the token shifted vertically by dy
func (t Token) WithOffset(dy int) Token {
	t.BBox = t.BBox.Translate(0, dy)
	return t
}

// WordCount returns the number of whitespace separated words in the value
func (t Token) WordCount() int {
	return len(strings.Fields(t.Value))
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s page %d", t.Kind, t.Value, t.BBox, t.Page)
}

// Kinds returns the kinds of the given tokens in order
func Kinds(tokens []Token) []Kind {
	kinds := make([]Kind, len(tokens))
	for i, t := range tokens {
		kinds[i] = t.Kind
	}
	return kinds
}
