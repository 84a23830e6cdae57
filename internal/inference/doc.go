// Package inference asks a multimodal model what dishes an image shows.
//
// An Analyzer takes the encoded image, the scan type and the target
// language and returns a Response: the isMenu flag plus one InferredDish
// per dish, in the order the model listed them. Client is the Analyzer
// backed by the Gemini generateContent REST API.
//
// # Prompt and Schema
//
// Every request carries a strict response schema (see ResponseSchema)
// where each dish field is required. The prompt branches on scan type:
// menu scans must infer spice level, allergens and tags from culinary
// knowledge of the dish name, and dish scans from visual inspection.
//
// # Parsing
//
// Parse strips a surrounding markdown code fence before decoding. A
// malformed body is a *ParseError and aborts the scan. A body without a
// "dishes" key, or an empty body, is an empty dish list.
//
// # Errors
//
// Service failures are *APIError. Rate limiting and quota exhaustion
// match ErrQuotaExceeded with errors.Is so callers can tell users to try
// again later instead of reporting a generic failure.
package inference
