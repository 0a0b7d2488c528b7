package manager

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// SeedSource draws seeds for requests that did not specify one.
// Implementations must return non-negative values.
type SeedSource interface {
	Seed() int64
}

// CryptoSeeds draws seeds from crypto/rand.
type CryptoSeeds struct{}

func (CryptoSeeds) Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is exceptional; fall back to math/rand rather than fail generation.
		return mrand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) & math.MaxInt64)
}

// FixedSeeds always returns the same seed. Useful in tests.
type FixedSeeds int64

func (f FixedSeeds) Seed() int64 { return int64(f) }
