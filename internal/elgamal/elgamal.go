// Package elgamal implements the additive ElGamal ciphertext used by the
// transfer circuit: Encrypt(m, r, ek) = (m*G + r*ek, r*G), homomorphically
// additive in m under a fixed encryption key. Only the native
// (out-of-circuit) representation lives here; the circuit never calls
// into this package (it reconstructs the same arithmetic from curve.Var
// operations so every term can be exposed as a public input in the order
// transfer.Circuit requires), and the builder uses this package to
// recompute the ciphertexts it must publish alongside the proof.
package elgamal

import (
	"math/big"

	"github.com/shieldedpay/transferzk/internal/curve"
)

// Ciphertext is a two-point ElGamal ciphertext: L = m*G + r*ek, R = r*G.
type Ciphertext struct {
	L, R curve.Point
}

// Encrypt encrypts the 32-bit plaintext m under encryption key ek using
// randomness r (an element of Fs already reduced modulo the subgroup order).
func Encrypt(m uint32, r *big.Int, ek curve.Point) Ciphertext {
	base := curve.Base()
	mg := base.ScalarMul(new(big.Int).SetUint64(uint64(m)))
	rek := ek.ScalarMul(r)
	rg := base.ScalarMul(r)
	return Ciphertext{
		L: mg.Add(rek),
		R: rg,
	}
}

// Add returns the ciphertext of the sum of the two encrypted plaintexts,
// exploiting ElGamal's additive homomorphism. Both ciphertexts must be
// encrypted under the same key; their randomness may differ, and the
// result carries the sum of the two randomness values.
func Add(a, b Ciphertext) Ciphertext {
	return Ciphertext{L: a.L.Add(b.L), R: a.R.Add(b.R)}
}

// Sub returns a - b, computed as a + (-b).
func Sub(a, b Ciphertext) Ciphertext {
	return Ciphertext{L: a.L.Add(b.L.Neg()), R: a.R.Add(b.R.Neg())}
}
