// Package imaging turns a user-supplied image handle into the payload that
// both the inference service and the OCR engine consume.
//
// The package implements the image codec of the scan pipeline together with
// a few pixel-level helpers the pipeline needs around it.
//
// # Sources
//
// A Source is an opaque handle to image bytes. Four implementations are
// provided:
//   - FileSource: a path on the local filesystem
//   - BytesSource: bytes already in memory
//   - DataURISource: a "data:<mime>;base64,<body>" string; the header is
//     stripped and the body decoded
//   - URLSource: an http(s) URL fetched with a retrying client
//
// ParseSource picks one of these from a string.
//
// # Encoding
//
// Encode reads a Source into a Payload. The payload bytes are the raw image
// bytes exactly as read, with no transport framing, so encoding the same
// source twice yields identical payloads. The MIME type and pixel
// dimensions are detected from the image header with image.DecodeConfig.
// PNG, JPEG, GIF, WebP, BMP and TIFF are recognized.
//
// Use Payload.Base64 for transports that need a text body and
// Payload.DataURI for an embeddable representation.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Helpers
// that accept a dish.BoundingBox map it onto the decoded image first.
//
// # Error Handling
//
// Any failure to read or recognize a source is reported as *ReadError.
// The pipeline treats it as fatal.
package imaging
