// Package srp implements the server side of the SRP-6a zero-knowledge
// password exchange from spec §4.3, over the RFC 5054 2048-bit group with
// SHA-256. Grounded on other_examples' CirrusSync SRP service (session
// shape, two-phase Init/Verify split, constant-time proof comparison);
// there is no third-party SRP library anywhere in the retrieval pack, so
// the group arithmetic is built on math/big directly (justified in
// DESIGN.md).
package srp

import "math/big"

// groupN2048Hex is the RFC 5054 (Appendix A) 2048-bit SRP group prime.
const groupN2048Hex = "AC6BDB41324A9A9BF166DE5E1389582FAF72B6651987EE07FC3192943DB56050A37329CBB4A099ED8193E0757767A13DD52312AB4B03310DCD7F48A9DA04FD50E8083969EDB767B0CF6095179A163AB3661A05FBD5FAAAE82918A9962F0B93B855F97993EC975EEAA80D740ADBF4FF747359D041D5C33EA71D281E446B14773BCA97B43A23FB801676BD207A436C6481F1D2B9078717461A5B9D32E688F87748544523B524B0D57D5EA77A2775D2ECFA032CFBDBF52FB3786160279004E57AE6AF874E7303CE53299CCC041C7BC308D82A5698F3A8D0C38271AE35F8E9DBFBB694B5C803D89F7AE435DE236D525F54759B65E372FCD68EF20FA7111F9E4AFF73"

var (
	groupN = mustBigIntFromHex(groupN2048Hex)
	groupG = big.NewInt(2)
	groupK = computeK(groupN, groupG)
	// groupByteLen is the fixed-width padding length used for every
	// big integer serialized into a hash input, per the spec's
	// "big-endian byte strings without leading-zero stripping" rule.
	groupByteLen = (groupN.BitLen() + 7) / 8
)

func mustBigIntFromHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("srp: invalid group constant")
	}
	return n
}

func computeK(n, g *big.Int) *big.Int {
	digest := hashConcat(padBigInt(n, (n.BitLen()+7)/8), serializeMinimal(g))
	return new(big.Int).SetBytes(digest)
}
