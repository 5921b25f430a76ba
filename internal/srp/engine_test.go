package srp

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcauth/gateway/internal/apierr"
)

type fakeLookup struct {
	userID, salt, verifierHex string
}

func (f fakeLookup) LookupSRP(_ context.Context, _ string) (string, string, string, error) {
	if f.userID == "" {
		return "", "", "", apierr.InvalidCredentials()
	}
	return f.userID, f.salt, f.verifierHex, nil
}

// clientMath simulates the client side of RFC 5054-style SRP-6a well
// enough to exercise the server engine end to end.
type clientMath struct {
	x *big.Int
	a *big.Int
	A *big.Int
}

func newClient() clientMath {
	x, _ := randomBigInt(groupN)
	a, _ := randomBigInt(groupN)
	A := new(big.Int).Exp(groupG, a, groupN)
	return clientMath{x: x, a: a, A: A}
}

func (c clientMath) verifier() *big.Int {
	return new(big.Int).Exp(groupG, c.x, groupN)
}

func (c clientMath) sharedSecret(B *big.Int) *big.Int {
	u := new(big.Int).SetBytes(hashConcat(padBigInt(c.A, groupByteLen), padBigInt(B, groupByteLen)))
	kgx := new(big.Int).Mod(new(big.Int).Mul(groupK, new(big.Int).Exp(groupG, c.x, groupN)), groupN)
	base := new(big.Int).Mod(new(big.Int).Sub(B, kgx), groupN)
	exp := new(big.Int).Add(c.a, new(big.Int).Mul(u, c.x))
	return new(big.Int).Exp(base, exp, groupN)
}

func clientProof(email, saltHex string, A, B *big.Int, K []byte) []byte {
	hN := hashConcat(padBigInt(groupN, groupByteLen))
	hG := hashConcat(serializeMinimal(groupG))
	hID := hashConcat([]byte(email))
	saltBytes, _ := hex.DecodeString(saltHex)
	return hashConcat(
		xorBytes(hN, hG),
		hID,
		saltBytes,
		padBigInt(A, groupByteLen),
		padBigInt(B, groupByteLen),
		K,
	)
}

func TestInitVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newClient()
	saltHex := "a1b2c3d4e5f60718"
	lookup := fakeLookup{userID: "user-1", salt: saltHex, verifierHex: client.verifier().Text(16)}
	engine := New(lookup, NewMemoryStore())

	sessionID, salt, serverPublicHex, err := engine.Init(ctx, "User@Example.com", client.A.Text(16))
	require.NoError(t, err)
	assert.Equal(t, saltHex, salt)

	B, ok := new(big.Int).SetString(serverPublicHex, 16)
	require.True(t, ok)

	S := client.sharedSecret(B)
	K := hashConcat(padBigInt(S, groupByteLen))
	m1 := clientProof("user@example.com", saltHex, client.A, B, K)

	userID, email, serverProofHex, err := engine.Verify(ctx, sessionID, hex.EncodeToString(m1))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "user@example.com", email)

	expectedM2 := hashConcat(padBigInt(client.A, groupByteLen), m1, K)
	assert.Equal(t, hex.EncodeToString(expectedM2), serverProofHex)
}

func TestVerifyWrongProofRejected(t *testing.T) {
	ctx := context.Background()
	client := newClient()
	saltHex := "0011223344556677"
	lookup := fakeLookup{userID: "user-1", salt: saltHex, verifierHex: client.verifier().Text(16)}
	engine := New(lookup, NewMemoryStore())

	sessionID, _, _, err := engine.Init(ctx, "user@example.com", client.A.Text(16))
	require.NoError(t, err)

	_, _, _, err = engine.Verify(ctx, sessionID, hex.EncodeToString([]byte("not-a-real-proof-32-bytes-long!")))
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

// TestInitRejectsZeroClientPublic covers the spec-required safety check:
// a client public value congruent to 0 mod N must never reach the
// exponentiation that follows.
func TestInitRejectsZeroClientPublic(t *testing.T) {
	ctx := context.Background()
	lookup := fakeLookup{userID: "user-1", salt: "aa", verifierHex: big.NewInt(7).Text(16)}
	engine := New(lookup, NewMemoryStore())

	zeroModN := groupN.Text(16) // N itself is 0 mod N
	_, _, _, err := engine.Init(ctx, "user@example.com", zeroModN)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestInitUnknownEmailReturnsInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	engine := New(fakeLookup{}, NewMemoryStore())
	_, _, _, err := engine.Init(ctx, "nobody@example.com", big.NewInt(5).Text(16))
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

// TestVerifyExpiredSessionRejected covers the sweep invariant: a session
// past its expiry is treated as absent.
func TestVerifyExpiredSessionRejected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "sess-1", Session{
		UserID:        "user-1",
		Email:         "user@example.com",
		Salt:          "aa",
		Verifier:      big.NewInt(7),
		ServerPublic:  big.NewInt(9),
		ServerPrivate: big.NewInt(3),
		ClientPublic:  big.NewInt(11),
		ExpiresAt:     time.Now().Add(-time.Second),
	}))

	engine := New(fakeLookup{}, store)
	_, _, _, err := engine.Verify(ctx, "sess-1", hex.EncodeToString([]byte("x")))
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

// TestVerifyConsumesSession covers invariant: one session is consumed per
// successful verify.
func TestVerifyConsumesSession(t *testing.T) {
	ctx := context.Background()
	client := newClient()
	saltHex := "ff00ff00"
	lookup := fakeLookup{userID: "user-1", salt: saltHex, verifierHex: client.verifier().Text(16)}
	engine := New(lookup, NewMemoryStore())

	sessionID, _, serverPublicHex, err := engine.Init(ctx, "user@example.com", client.A.Text(16))
	require.NoError(t, err)
	B, _ := new(big.Int).SetString(serverPublicHex, 16)
	S := client.sharedSecret(B)
	K := hashConcat(padBigInt(S, groupByteLen))
	m1 := clientProof("user@example.com", saltHex, client.A, B, K)

	_, _, _, err = engine.Verify(ctx, sessionID, hex.EncodeToString(m1))
	require.NoError(t, err)

	_, _, _, err = engine.Verify(ctx, sessionID, hex.EncodeToString(m1))
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}
