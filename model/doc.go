// Package model defines the data shared by every stage of form
// reconstruction: OCR words, line contours, classified tokens, the global
// document token stream and the field mappings handed to a renderer.
//
// # Tokens
//
// A [Token] carries one of five closed [Kind] values:
//
//   - [FormTitle] - the prominent title at the top of a page
//   - [SectionTitle] - a heading that opens a group of fields
//   - [FieldLabel] - a phrase ending in ':' that names a field
//   - [FieldSpace] - a visual blank (underline or box) to be filled
//   - [Note] - any other text
//
// Tokens are values. Stages that reclassify or shift a token build a new one
// with [Token.WithKind] or [Token.WithOffset].
//
// # Geometry
//
// [BBox] uses raster pixel coordinates with a top-left origin, matching what
// OCR engines and line detectors report for page images.
//
// # Documents
//
// A [Document] is the concatenation of all page streams, each page shifted by
// the cumulative height of the pages before it. It serializes to the flat
// presentation shape {kind, value, x, y, w, h, page} plus per-page sizes.
package model
