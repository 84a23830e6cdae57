// Package scan runs the menu and dish scan pipeline.
//
// A Pipeline encodes the source image, then runs inference and OCR
// concurrently and waits for both before localizing dish names against OCR
// lines. It then resolves a display image per dish and, for menus,
// preloads the remote thumbnails with a bounded wait.
//
// A Session wraps a Pipeline with the caller contract: progress updates,
// exactly one of OnComplete or OnCancel after a short delay, and no
// callbacks at all once the caller's context is canceled.
package scan
