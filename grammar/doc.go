// Package grammar validates a form token stream against the form grammar and
// builds the label to fill-target mapping.
//
// [Parse] is a single-pass recursive-descent recognizer with one token of
// lookahead. When a required terminal is missing it records a [Diagnostic]
// and discards tokens until a SECTION_TITLE, FIELD_LABEL or NOTE, then
// resumes the enclosing list. Each structural break yields one diagnostic.
//
//	result := grammar.Parse(doc.Tokens)
//	if !result.Accepted {
//		for _, d := range result.Errors {
//			fmt.Println(d)
//		}
//	}
//	for _, m := range result.Mappings {
//		fmt.Println(m.SectionTitle(), m.Key(), m.FillTargetBox)
//	}
//
// Mappings for well-formed fields are kept even when the document is
// rejected. Callers decide whether to use them.
package grammar
