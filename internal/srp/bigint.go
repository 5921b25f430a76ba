package srp

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
)

// padBigInt serializes n as a big-endian byte string of exactly length
// bytes, left-padding with zeroes. Used for every value except the group
// generator, which the spec requires in minimal form.
func padBigInt(n *big.Int, length int) []byte {
	b := n.Bytes()
	if len(b) >= length {
		return b
	}
	out := make([]byte, length)
	copy(out[length-len(b):], b)
	return out
}

// serializeMinimal returns n's shortest big-endian representation, used
// only for the group generator g per spec §4.3.
func serializeMinimal(n *big.Int) []byte {
	return n.Bytes()
}

func hashConcat(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// randomBigInt returns a uniformly random value in [1, max).
func randomBigInt(max *big.Int) (*big.Int, error) {
	for {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, err
		}
		if n.Sign() != 0 {
			return n, nil
		}
	}
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
