package gallerd

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	idSuffixLength  = 6
	idSuffixCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewImageID synthesizes a unique image id of the form
// <epoch-millis>-<random-base36-suffix>.jpg. The millisecond timestamp keeps
// ids roughly sortable by upload time; the suffix disambiguates uploads
// landing in the same millisecond.
func NewImageID(now time.Time) string {
	return fmt.Sprintf("%d-%s.jpg", now.UnixMilli(), randomSuffix(idSuffixLength))
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(idSuffixCharset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; fall back to a fixed character rather than panic.
			b[i] = idSuffixCharset[0]
			continue
		}
		b[i] = idSuffixCharset[idx.Int64()]
	}
	return string(b)
}
