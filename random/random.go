package random

import (
	crand "crypto/rand"
	"math/rand/v2"
)

var (
	// PseudoRand is deterministic. Use it in tests only
	PseudoRand = rand.New(rand.NewPCG(0xFF_FF_FF_FF, 0xAA_BB_CC_DD))
)

// CryptoRand returns a generator seeded from the OS entropy source
func CryptoRand() (r *rand.Rand) {
	var seed [32]byte
	crand.Reader.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}
