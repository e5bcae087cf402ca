// Package keys implements the key-derivation chain spec.md's data model
// names: a 32-byte seed yields a SpendingKey (the spend-authorizing scalar
// ask), which yields a ProofGenerationKey (pgk = ask*G_skg), which yields a
// DecryptionKey (an Fs scalar dk) and its matching EncryptionKey (= dk*G_ncr).
//
// Every derivation step is a MiMC hash, matching the teacher's KDF-by-hash-
// chain idiom (internal/zerocash/crypto.go's mimcHash/Commitment) rather
// than re-deriving a blake2s-based scheme the pack's dependency surface does
// not otherwise exercise.
package keys

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr/mimc"
	"github.com/shieldedpay/transferzk/internal/curve"
)

// SpendingKey is the spend-authorizing scalar ask, derived from a 32-byte
// seed. It lives in Fs, Jubjub's scalar field.
type SpendingKey struct {
	Ask *big.Int
}

// ProofGenerationKey is the curve point pgk = ask*G_skg used to authorize
// spends; it is exposed to the circuit as a witness (never recomputed
// in-circuit from ask) and re-randomized per proof into rvk using G_ncr, per
// spec.md's single-base-point rule for in-circuit multiplication.
type ProofGenerationKey struct {
	Point curve.Point
}

// DecryptionKey is the Fs scalar dk used to decrypt the sender's own
// ElGamal ciphertexts.
type DecryptionKey struct {
	Scalar *big.Int
}

// EncryptionKey is the public curve point ek = dk*G_ncr.
type EncryptionKey struct {
	Point curve.Point
}

// ErrZeroDecryptionKey is returned by DeriveDecryptionKey on the
// astronomically unlikely event that a seed hashes to a zero scalar. The
// circuit does not separately constrain dk != 0 (spec.md §4.1 edge cases):
// it relies on the resulting ek_sender's small-order check to reject a
// degenerate key indirectly. Implementations MUST still reject dk == 0 at
// derivation time, which this function does.
var ErrZeroDecryptionKey = fmt.Errorf("keys: derived decryption key is zero")

// DeriveSpendingKey hashes a 32-byte seed to an Fs scalar, the spend
// authorizing key ask.
func DeriveSpendingKey(seed [32]byte) SpendingKey {
	return SpendingKey{Ask: hashToScalar("zk-transfer.spending-key.v1", seed[:])}
}

// DeriveProofGenerationKey multiplies the spending-key generator G_skg by
// ask. This point is witnessed into the circuit directly; the circuit never
// recomputes it from ask.
func DeriveProofGenerationKey(sk SpendingKey) ProofGenerationKey {
	return ProofGenerationKey{Point: curve.SpendBase().ScalarMul(sk.Ask)}
}

// DeriveDecryptionKey hashes the proof generation key's affine coordinates
// to a second, independent scalar, used as the sender's ElGamal secret key.
func DeriveDecryptionKey(pgk ProofGenerationKey) (DecryptionKey, error) {
	x, y := curve.PointToNative(pgk.Point)
	scalar := hashToScalar("zk-transfer.decryption-key.v1", x.Bytes(), y.Bytes())
	if scalar.Sign() == 0 {
		return DecryptionKey{}, ErrZeroDecryptionKey
	}
	return DecryptionKey{Scalar: scalar}, nil
}

// EncryptionKeyOf derives the public encryption key matching dk, using
// G_ncr: every ElGamal key in this protocol shares the circuit's single
// base point.
func EncryptionKeyOf(dk DecryptionKey) EncryptionKey {
	return EncryptionKey{Point: curve.Base().ScalarMul(dk.Scalar)}
}

// hashToScalar hashes the concatenation of the given byte strings with MiMC
// and reduces the digest modulo Fs's order.
func hashToScalar(domain string, parts ...[]byte) *big.Int {
	h := mimc.NewMiMC()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write(p)
	}
	digest := h.Sum(nil)
	s := new(big.Int).SetBytes(digest)
	return s.Mod(s, curve.Order())
}
