package model

import "strings"

// FieldMapping associates a parsed field label with the blank it should be
// written into. Section is nil for fields at document root.
type FieldMapping struct {
	Section       *string `json:"section"`
	Label         string  `json:"label"`
	LabelBox      BBox    `json:"label_box"`
	FillTargetBox BBox    `json:"fill_target"`
}

// Key returns the label with trailing colons and whitespace removed.
// This is the form used to look values up in a profile.
func (m FieldMapping) Key() string {
	return NormalizeLabel(m.Label)
}

// SectionTitle returns the enclosing section title or "" at document root
func (m FieldMapping) SectionTitle() string {
	if m.Section == nil {
		return ""
	}
	return *m.Section
}

// NormalizeLabel strips colons and surrounding whitespace from a label
func NormalizeLabel(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, ":", ""))
}
