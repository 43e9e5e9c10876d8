// Package vision defines the per-page text extraction contract and its
// engines: the hosted Claude vision API and a local Tesseract fallback.
package vision

import "context"

// TextExtractor transcribes a single rendered page image (PNG bytes).
// Implementations perform no retries; a failure is reported to the caller,
// which decides whether the whole job aborts or the page goes blank.
type TextExtractor interface {
	ExtractPage(ctx context.Context, pagePNG []byte) (string, error)
}
