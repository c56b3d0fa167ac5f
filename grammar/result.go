package grammar

import (
	"errors"

	"github.com/kimodri/form-filler/model"
)

// ErrRejected is returned by Result.Err for a rejected document
var ErrRejected = errors.New("form structure rejected")

// Result is the outcome of parsing a token stream
type Result struct {
	// Accepted is true only if every rule matched, no diagnostics were
	// recorded and the whole stream was consumed
	Accepted bool `json:"accepted"`

	// Errors are the structural errors in stream order
	Errors []Diagnostic `json:"errors"`

	// Mappings holds one entry per well-formed field, including fields
	// parsed before or after an error
	Mappings []model.FieldMapping `json:"mappings"`

	// Tree is the recognized structure
	Tree *Tree `json:"-"`
}

// Err returns nil for an accepted document, otherwise ErrRejected joined
// with every diagnostic
func (r *Result) Err() error {
	if r.Accepted {
		return nil
	}
	errs := []error{ErrRejected}
	for _, d := range r.Errors {
		errs = append(errs, d)
	}
	return errors.Join(errs...)
}

// Lookup returns the first mapping whose normalized label equals key
func (r *Result) Lookup(key string) (model.FieldMapping, bool) {
	key = model.NormalizeLabel(key)
	for _, m := range r.Mappings {
		if m.Key() == key {
			return m, true
		}
	}
	return model.FieldMapping{}, false
}

// Tree is the document structure recognized by the parser
type Tree struct {
	Title    *model.Token
	Sections []Section
}

// Section is a run of form elements, optionally under a section title
type Section struct {
	Title    *model.Token
	Elements []Element
}

// Element is either a field or a note
type Element struct {
	Field *Field
	Note  *model.Token
}

// Field pairs a label with the blank it labels
type Field struct {
	Label model.Token
	Space model.Token
}

// Fields returns every parsed field in document order
func (t *Tree) Fields() []Field {
	var out []Field
	for _, s := range t.Sections {
		for _, e := range s.Elements {
			if e.Field != nil {
				out = append(out, *e.Field)
			}
		}
	}
	return out
}
