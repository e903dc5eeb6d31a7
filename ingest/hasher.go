package ingest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/zeebo/blake3"
)

// newHash returns a fresh hash.Hash for the given algorithm, or an
// *InvalidAlgorithm error. This is the single place that maps the
// HashAlgo enum to a concrete implementation.
func newHash(algo HashAlgo) (hash.Hash, error) {
	switch algo {
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA512:
		return sha512.New(), nil
	case AlgoBlake3:
		return blake3.New(), nil
	default:
		return nil, &InvalidAlgorithm{Algo: string(algo)}
	}
}

// hexSum finalizes h and returns its hex digest without mutating h's
// running state semantics beyond what hash.Hash already guarantees.
func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}
