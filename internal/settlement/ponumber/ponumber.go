// Package ponumber validates, normalizes and generates purchase-order
// numbers, and defines the contract for extracting a PO number from an
// uploaded document.
package ponumber

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	e "github.com/inkbridge/settlement/internal/settlement/errors"
)

// numberPattern: an alphanumeric start followed by 2 to 48 alphanumeric,
// hyphen or underscore characters (3 to 49 total).
var numberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{2,48}$`)

// Validate reports whether s is an acceptable PO number.
func Validate(s string) bool {
	return numberPattern.MatchString(strings.TrimSpace(s))
}

// Normalize upcases and trims a PO number for storage and comparison.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Generate builds the fallback PO number for a job when neither a manual
// nor an extracted number is available.
func Generate(prefix, jobNumber string) string {
	return fmt.Sprintf("%s-%s", Normalize(prefix), Normalize(jobNumber))
}

// Extractor pulls a PO number out of raw document bytes. Implementations
// are best-effort: an empty result or an error both mean "not found" and
// callers fall back to Generate.
type Extractor interface {
	ExtractPONumber(ctx context.Context, doc []byte) (string, error)
}

// Resolve picks the PO number for a new purchase order: a valid manual
// number wins, then a valid extracted number, then the generated fallback.
// The returned number is always normalized and always passes Validate.
func Resolve(manual, extracted, prefix, jobNumber string) (string, error) {
	if manual != "" {
		if !Validate(manual) {
			return "", fmt.Errorf("%w: PO number %q is malformed", e.ErrValidation, manual)
		}
		return Normalize(manual), nil
	}
	if extracted != "" && Validate(extracted) {
		return Normalize(extracted), nil
	}
	generated := Generate(prefix, jobNumber)
	if !Validate(generated) {
		return "", fmt.Errorf("%w: generated PO number %q is malformed", e.ErrValidation, generated)
	}
	return generated, nil
}
