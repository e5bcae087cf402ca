// Package sig implements the re-randomized spend-authority key pair every
// transfer proof carries: rsk = ask + alpha and rvk = pgk + alpha*G_ncr.
//
// Grounded on original_source/primitives/src/signature.rs's redjubjub
// SigVerificationKey/FixedGenerators::SpendingKeyGenerator split and on
// core/proofs/src/prover.rs's gen_proof, which derives rsk from
// spending_key.into_rsk(alpha) and rvk from
// PublicKey(proof_generation_key).randomize(alpha, FixedGenerators::NoteCommitmentRandomness).
// Note the asymmetry that derivation preserves: pgk itself is built with
// G_skg (package keys), but its rerandomization term uses G_ncr, because
// that is the only generator the circuit is allowed to multiply by.
package sig

import (
	"math/big"

	"github.com/shieldedpay/transferzk/internal/curve"
	"github.com/shieldedpay/transferzk/internal/keys"
)

// RandomizedSigningKey is rsk = ask + alpha mod Fs's order, the scalar the
// prover signs the transaction with. It is never shared across two proofs:
// alpha is freshly sampled per call to Builder.Prove.
func RandomizedSigningKey(sk keys.SpendingKey, alpha *big.Int) *big.Int {
	rsk := new(big.Int).Add(sk.Ask, alpha)
	return rsk.Mod(rsk, curve.Order())
}

// RandomizedVerificationKey is rvk = pgk + alpha*G_ncr, the point the
// circuit both takes as a witness and recomputes from its own alpha_g term
// (spec.md §4.1 step 9). Verifiers check a transaction's signature against
// this key, never against the long-lived pgk.
func RandomizedVerificationKey(pgk keys.ProofGenerationKey, alpha *big.Int) curve.Point {
	alphaG := curve.Base().ScalarMul(alpha)
	return pgk.Point.Add(alphaG)
}

// RandomizedVerificationKeyMatches reports whether rvk is the correct
// rerandomization of pgk under alpha. Exercised by tests checking that an
// rvk matches the alpha it was derived with and does not match a different
// alpha.
func RandomizedVerificationKeyMatches(rvk curve.Point, pgk keys.ProofGenerationKey, alpha *big.Int) bool {
	return rvk.Equal(RandomizedVerificationKey(pgk, alpha))
}
