package grammar

import (
	"encoding/json"
	"fmt"

	"github.com/kimodri/form-filler/model"
)

// Code classifies a structural error
type Code int

const (
	// UnexpectedToken means a required terminal was not the lookahead
	UnexpectedToken Code = iota + 1
	// UnexpectedEnd means input ended while a terminal was required
	UnexpectedEnd
	// TrailingTokens means tokens remain after a complete document
	TrailingTokens
)

// String returns a string representation of the code
func (c Code) String() string {
	switch c {
	case UnexpectedToken:
		return "unexpected-token"
	case UnexpectedEnd:
		return "unexpected-end"
	case TrailingTokens:
		return "trailing-tokens"
	default:
		return "unknown"
	}
}

// Diagnostic describes one structural error found by the parser
type Diagnostic struct {
	Code Code

	// Expected is the terminal the grammar required. Unset for TrailingTokens.
	Expected model.Kind

	// Found is the kind of the offending token. Unset for UnexpectedEnd.
	Found model.Kind

	// Position is the index of the offending token in the stream, or the
	// stream length at end of input
	Position int

	// Token is the offending token, nil at end of input
	Token *model.Token
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	switch d.Code {
	case UnexpectedEnd:
		return fmt.Sprintf("expected %s, found end of input", d.Expected)
	case TrailingTokens:
		return fmt.Sprintf("trailing tokens after document, found %s at position %d", d.Found, d.Position)
	default:
		return fmt.Sprintf("expected %s, found %s", d.Expected, d.Found)
	}
}

// MarshalJSON encodes the diagnostic with its message
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	out := struct {
		Code     string       `json:"code"`
		Message  string       `json:"message"`
		Expected *model.Kind  `json:"expected,omitempty"`
		Found    *model.Kind  `json:"found,omitempty"`
		Position int          `json:"position"`
		Token    *model.Token `json:"token,omitempty"`
	}{
		Code:     d.Code.String(),
		Message:  d.Error(),
		Position: d.Position,
		Token:    d.Token,
	}
	if d.Expected.IsValid() {
		out.Expected = &d.Expected
	}
	if d.Found.IsValid() {
		out.Found = &d.Found
	}
	return json.Marshal(out)
}
