// Package layout reconstructs the token stream of a scanned form from raw
// OCR word boxes and line contours.
//
// # Pipeline
//
// The [Tokenizer] runs the stages for each page:
//
//   - [WordFilter] - drops empty and low-confidence OCR words
//   - [PhraseSegmenter] - merges words on one OCR line into NOTE and
//     FIELD_LABEL phrases, splitting on horizontal gaps
//   - [SpaceDetector] - turns wide, flat line contours into FIELD_SPACE tokens
//   - [Classifier] - re-tags NOTE tokens as FORM_TITLE or SECTION_TITLE by
//     height, width, position and word count
//   - [ReadingOrderMerger] - clusters tokens into rows and orders them top to
//     bottom, left to right
//
// [Assemble] joins the per-page streams into one [model.Document], shifting
// each page down by the height of the pages before it:
//
//	tokenizer := layout.NewTokenizer()
//	doc, results := tokenizer.Tokenize(pages)
//
// # Configuration
//
// Each stage can be configured independently:
//
//	config := layout.DefaultTokenizerConfig()
//	config.PhraseConfig.GapThreshold = 35
//	config.ReadingOrderConfig.RowTolerance = 20
//	config.ReadingOrderConfig.Anchor = layout.AnchorRunningMean
//	tokenizer := layout.NewTokenizerWithConfig(config)
//
// Stages never fail. Degenerate input (empty line groups, pages without
// notes, zero-area boxes) produces fewer tokens and is reported in
// [PageStats].
package layout
