// Package extraction defines the contract for the external document
// extractor that pre-fills job and purchase-order fields from uploaded
// PDFs. Extraction is best-effort: every field is optional and a failure
// never hard-fails the operation that requested it.
package extraction

import (
	"context"
	"time"
)

// Fields is the partially-populated result of one extraction pass. Nil
// means the extractor could not resolve the field.
type Fields struct {
	Amount       *int64
	PONumber     *string
	DeliveryDate *time.Time
	Quantity     *int64
	Description  *string
}

// Extractor parses raw document bytes. Implementations may call external
// services; errors map to the engine's ErrExtraction at the call site.
type Extractor interface {
	Extract(ctx context.Context, doc []byte) (*Fields, error)
}

// Renderer turns structured invoice or purchase-order data into a byte
// stream. The layout is external to the engine; only the returned
// reference is stored.
type Renderer interface {
	Render(doc interface{}) ([]byte, error)
}
