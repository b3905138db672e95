package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// fieldSeparator joins significant fields in the fingerprint preimage.
// The unit separator cannot occur in parsed field values, so distinct
// tuples never collide by concatenation.
const fieldSeparator = "\x1f"

// Fingerprint computes the content fingerprint of a book: a 256-bit
// SHA-256 digest, hex encoded, over the canonical encoding of the
// significant fields (name, both prices, availability, rating).
// Records that differ only in description, review count, image,
// category or crawl time share a fingerprint.
func Fingerprint(book *domain.Book) string {
	// Prices are rendered at fixed two-decimal scale so equal values
	// at different scales (45.5 vs 45.50) encode identically.
	preimage := strings.Join([]string{
		book.Name,
		book.PriceIncludingTax.StringFixed(2),
		book.PriceExcludingTax.StringFixed(2),
		book.Availability,
		strconv.Itoa(book.Rating),
	}, fieldSeparator)

	sum := sha256.Sum256([]byte(preimage))

	return hex.EncodeToString(sum[:])
}
