// Package localize fuses dish names from the inference service with OCR
// line geometry.
//
// Each dish is matched independently against the OCR lines in engine
// order. Both strings are normalized (whitespace removed, lowercased) and a
// line is a candidate only when one contains the other. Candidates are
// scored by their length ratio, with a bonus for near whole-line matches,
// and the best candidate above the threshold replaces the dish's
// placeholder box with the line's box in the 0-1000 space.
//
// Matching is greedy: one line may be claimed by several dishes.
package localize
