package formfiller

import (
	"fmt"
	"strings"
)

// WarningCode identifies the kind of a non-fatal issue
type WarningCode string

const (
	// WarnNoWords means OCR found no usable words on a page
	WarnNoWords WarningCode = "no-words"

	// WarnNoFieldSpaces means no fill targets were detected on a page
	WarnNoFieldSpaces WarningCode = "no-field-spaces"

	// WarnDroppedTokens means degenerate tokens were discarded while merging
	WarnDroppedTokens WarningCode = "dropped-tokens"

	// WarnNotAccepted means the token stream did not parse as a form
	WarnNotAccepted WarningCode = "not-accepted"

	// WarnMissingValue means the profile had no value for a field
	WarnMissingValue WarningCode = "missing-value"
)

// Warning describes a non-fatal issue found while reading or filling a form.
// Page is 1-indexed; 0 means the warning concerns the whole document.
type Warning struct {
	Code    WarningCode `json:"code"`
	Page    int         `json:"page,omitempty"`
	Message string      `json:"message"`
}

// String returns the warning as a single line
func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into one line per warning
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// HasWarning reports whether any warning has the given code
func HasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
