// Package transfer implements the confidential-transfer circuit, proof
// builder, and key-context lifecycle: the arithmetic-circuit core of the
// protocol, over a Groth16 backend on BLS12-381/Jubjub.
//
// Grounded on original_source/core/proofs/src/circuit/transfer.rs's nine
// synthesis steps, translated from bellman's ConstraintSystem/namespace
// idiom to gnark's frontend.API/Define idiom the way
// internal/zerocash/circuit.go translates this teacher's own MiMC circuits.
package transfer

import (
	"github.com/consensys/gnark/frontend"
	"github.com/shieldedpay/transferzk/internal/curve"
)

// Circuit is the base, 19-scalar-public-input transfer statement (spec.md
// §4.1/§6). The 22-scalar g_epoch/nonce variant is EpochCircuit
// (epoch.go); spec.md §9 is explicit that the two must not be merged.
type Circuit struct {
	PublicInputs

	// Private witnesses.
	Amount              frontend.Variable
	RemainingBalance    frontend.Variable
	Fee                 frontend.Variable
	Randomness          frontend.Variable
	Alpha               frontend.Variable
	DecryptionKeySender frontend.Variable
	ProofGenerationKeyX frontend.Variable
	ProofGenerationKeyY frontend.Variable
	EncKeyRecipientX    frontend.Variable
	EncKeyRecipientY    frontend.Variable
	BalanceCTLeftX      frontend.Variable
	BalanceCTLeftY      frontend.Variable
	BalanceCTRightX     frontend.Variable
	BalanceCTRightY     frontend.Variable
}

// Define synthesizes the transfer statement. Step numbers in comments match
// spec.md §4.1 one-to-one.
func (c *Circuit) Define(api frontend.API) error {
	ec, err := curve.NewCurve(api)
	if err != nil {
		return err
	}

	// Step 1: range proofs. api.ToBinary enforces booleanity of every bit
	// it allocates, so this alone is the full 32-bit range check.
	api.ToBinary(c.Amount, 32)
	api.ToBinary(c.RemainingBalance, 32)
	api.ToBinary(c.Fee, 32)

	// Step 2: sender key derivation, exposed.
	ekSender := curve.FixedBaseMul(ec, c.DecryptionKeySender)
	api.AssertIsEqual(c.EncKeySenderX, ekSender.X)
	api.AssertIsEqual(c.EncKeySenderY, ekSender.Y)

	// Step 3: encryption-randomness commitment, exposed as c_right.
	cRight := curve.FixedBaseMul(ec, c.Randomness)
	api.AssertIsEqual(c.CRightX, cRight.X)
	api.AssertIsEqual(c.CRightY, cRight.Y)

	// Step 4: amount/fee exponentiation.
	amountG := curve.FixedBaseMul(ec, c.Amount)
	feeG := curve.FixedBaseMul(ec, c.Fee)

	// Step 5: recipient key checks, exposed.
	ekRecipient := curve.Witness(ec, c.EncKeyRecipientX, c.EncKeyRecipientY)
	curve.AssertNotSmallOrder(api, ec, ekRecipient)
	api.AssertIsEqual(c.EncKeyRecipientX, ekRecipient.X)
	api.AssertIsEqual(c.EncKeyRecipientY, ekRecipient.Y)

	// Step 6: sender-side ciphertexts. The fee ciphertext reuses the same
	// randomness*ek_sender term as the amount ciphertext: both are
	// encrypted under the one randomness draw, so the term is identical.
	valRls := curve.Mul(ec, ekSender, c.Randomness)
	cLeftSender := curve.Add(ec, amountG, valRls)
	fLeftSender := curve.Add(ec, feeG, valRls)
	api.AssertIsEqual(c.CLeftSenderX, cLeftSender.X)
	api.AssertIsEqual(c.CLeftSenderY, cLeftSender.Y)
	api.AssertIsEqual(c.FLeftSenderX, fLeftSender.X)
	api.AssertIsEqual(c.FLeftSenderY, fLeftSender.Y)

	// Step 7: recipient-side ciphertext.
	valRlr := curve.Mul(ec, ekRecipient, c.Randomness)
	cLeftRecipient := curve.Add(ec, amountG, valRlr)
	api.AssertIsEqual(c.CLeftRecipientX, cLeftRecipient.X)
	api.AssertIsEqual(c.CLeftRecipientY, cLeftRecipient.Y)

	// Step 8: balance integrity.
	balL := curve.Witness(ec, c.BalanceCTLeftX, c.BalanceCTLeftY)
	curve.AssertNotSmallOrder(api, ec, balL)
	balR := curve.Witness(ec, c.BalanceCTRightX, c.BalanceCTRightY)
	curve.AssertNotSmallOrder(api, ec, balR)

	dkRandPoint := curve.Mul(ec, cRight, c.DecryptionKeySender) // dk*c_right
	lhs := curve.Add(ec, balL, dkRandPoint)
	lhs = curve.Add(ec, lhs, dkRandPoint) // dk*c_right applied twice cancels the randomness*ek_sender terms in c_left_sender and f_left_sender

	remBalG := curve.FixedBaseMul(ec, c.RemainingBalance)
	dkBalR := curve.Mul(ec, balR, c.DecryptionKeySender)
	rhs := curve.Add(ec, remBalG, dkBalR)
	rhs = curve.Add(ec, rhs, cLeftSender)
	rhs = curve.Add(ec, rhs, fLeftSender)

	// gnark's affine coordinates are canonical field elements already, so
	// direct equality replaces the bit-vector representation comparison
	// the bellman-backed original needed.
	api.AssertIsEqual(lhs.X, rhs.X)
	api.AssertIsEqual(lhs.Y, rhs.Y)

	api.AssertIsEqual(c.BalanceLeftX, balL.X)
	api.AssertIsEqual(c.BalanceLeftY, balL.Y)
	api.AssertIsEqual(c.BalanceRightX, balR.X)
	api.AssertIsEqual(c.BalanceRightY, balR.Y)

	// Step 9: rerandomization.
	pgk := curve.Witness(ec, c.ProofGenerationKeyX, c.ProofGenerationKeyY)
	curve.AssertNotSmallOrder(api, ec, pgk)

	alphaG := curve.FixedBaseMul(ec, c.Alpha)
	rvk := curve.Add(ec, pgk, alphaG)
	curve.AssertNotSmallOrder(api, ec, rvk)

	api.AssertIsEqual(c.RvkX, rvk.X)
	api.AssertIsEqual(c.RvkY, rvk.Y)

	return nil
}
