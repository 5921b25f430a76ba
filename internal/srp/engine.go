package srp

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcauth/gateway/internal/apierr"
)

// VerifierLookup resolves a user's SRP credentials by email. Implemented by
// internal/identity; kept as an interface here so the engine never imports
// the persistence layer.
type VerifierLookup interface {
	LookupSRP(ctx context.Context, email string) (userID, salt, verifierHex string, err error)
}

// Engine runs the server side of the SRP-6a exchange described in spec
// §4.3: one Init call per login attempt, one Verify call to complete it.
type Engine struct {
	lookup VerifierLookup
	store  Store
}

func New(lookup VerifierLookup, store Store) *Engine {
	return &Engine{lookup: lookup, store: store}
}

// Init begins an authentication attempt. A, the client's ephemeral public
// value, arrives hex-encoded; the returned salt and server public value are
// hex-encoded too.
func (e *Engine) Init(ctx context.Context, email, clientPublicHex string) (sessionID, salt, serverPublicHex string, err error) {
	email = strings.ToLower(strings.TrimSpace(email))

	A, ok := new(big.Int).SetString(clientPublicHex, 16)
	if !ok {
		return "", "", "", apierr.InvalidRequest("malformed client public value")
	}
	if new(big.Int).Mod(A, groupN).Sign() == 0 {
		return "", "", "", apierr.InvalidCredentials()
	}

	userID, saltHex, verifierHex, err := e.lookup.LookupSRP(ctx, email)
	if err != nil {
		return "", "", "", apierr.InvalidCredentials()
	}
	v, ok := new(big.Int).SetString(verifierHex, 16)
	if !ok {
		return "", "", "", apierr.Internal()
	}

	b, err := randomBigInt(groupN)
	if err != nil {
		return "", "", "", apierr.Internal()
	}

	// B = (k*v + g^b) mod N
	kv := new(big.Int).Mul(groupK, v)
	gb := new(big.Int).Exp(groupG, b, groupN)
	B := new(big.Int).Mod(new(big.Int).Add(kv, gb), groupN)

	id := uuid.NewString()
	sess := Session{
		UserID:        userID,
		Email:         email,
		Salt:          saltHex,
		Verifier:      v,
		ServerPublic:  B,
		ServerPrivate: b,
		ClientPublic:  A,
		ExpiresAt:     time.Now().Add(sessionTTL),
	}
	if err := e.store.Save(ctx, id, sess); err != nil {
		return "", "", "", apierr.Internal()
	}

	return id, saltHex, B.Text(16), nil
}

// Verify completes an authentication attempt given the client's proof M1.
// On success it consumes the session and returns the server's own proof M2
// alongside the identity it authenticated.
func (e *Engine) Verify(ctx context.Context, sessionID, clientProofHex string) (userID, email, serverProofHex string, err error) {
	clientProof, decErr := hex.DecodeString(clientProofHex)
	if decErr != nil {
		return "", "", "", apierr.InvalidRequest("malformed client proof")
	}

	sess, found, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return "", "", "", apierr.Internal()
	}
	if !found {
		return "", "", "", apierr.InvalidCredentials()
	}

	A, B, v, b := sess.ClientPublic, sess.ServerPublic, sess.Verifier, sess.ServerPrivate

	u := new(big.Int).SetBytes(hashConcat(padBigInt(A, groupByteLen), padBigInt(B, groupByteLen)))

	// S = (A * v^u)^b mod N
	vu := new(big.Int).Exp(v, u, groupN)
	avu := new(big.Int).Mod(new(big.Int).Mul(A, vu), groupN)
	S := new(big.Int).Exp(avu, b, groupN)
	K := hashConcat(padBigInt(S, groupByteLen))

	hN := sha256.Sum256(padBigInt(groupN, groupByteLen))
	hG := sha256.Sum256(serializeMinimal(groupG))
	hID := sha256.Sum256([]byte(sess.Email))
	saltBytes, saltErr := hex.DecodeString(sess.Salt)
	if saltErr != nil {
		saltBytes = []byte(sess.Salt)
	}

	expectedM1 := hashConcat(
		xorBytes(hN[:], hG[:]),
		hID[:],
		saltBytes,
		padBigInt(A, groupByteLen),
		padBigInt(B, groupByteLen),
		K,
	)

	if subtle.ConstantTimeCompare(expectedM1, clientProof) != 1 {
		return "", "", "", apierr.InvalidCredentials()
	}

	M2 := hashConcat(padBigInt(A, groupByteLen), clientProof, K)
	_ = e.store.Delete(ctx, sessionID)

	return sess.UserID, sess.Email, hex.EncodeToString(M2), nil
}
