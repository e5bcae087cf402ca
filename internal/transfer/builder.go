package transfer

import (
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/shieldedpay/transferzk/internal/curve"
	"github.com/shieldedpay/transferzk/internal/elgamal"
	"github.com/shieldedpay/transferzk/internal/keys"
	"github.com/shieldedpay/transferzk/internal/sig"
)

// Builder generates transfer proofs against one compiled, set-up circuit
// version. A Builder exclusively owns its KeyContext for its lifetime
// (spec.md §3); the proving key is immutable after construction and safe
// to share by reference across concurrent Builders built from the same
// KeyContext.
type Builder struct {
	kc *KeyContext
}

// NewBuilder wraps an existing KeyContext in a Builder.
func NewBuilder(kc *KeyContext) *Builder {
	return &Builder{kc: kc}
}

// Prove is a pure function of its inputs and the randomness it draws from
// rng: sample randomness and alpha, derive keys, instantiate the circuit,
// invoke the backend prover, self-verify, and serialize the extrinsic
// payload (spec.md §4.2). It performs no cleanup on failure and may be
// retried with a fresh rng draw.
func (b *Builder) Prove(
	amount, fee, remainingBalance uint32,
	sk keys.SpendingKey,
	ekRecipient keys.EncryptionKey,
	balanceCT elgamal.Ciphertext,
	rng io.Reader,
) (*TransactionPayload, error) {
	randomness, err := curve.RandomScalar(rng.Read)
	if err != nil {
		return nil, fmt.Errorf("transfer: draw randomness: %w", err)
	}
	alpha, err := curve.RandomScalar(rng.Read)
	if err != nil {
		return nil, fmt.Errorf("transfer: draw alpha: %w", err)
	}

	pgk := keys.DeriveProofGenerationKey(sk)
	dk, err := keys.DeriveDecryptionKey(pgk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	ekSender := keys.EncryptionKeyOf(dk)
	rvk := sig.RandomizedVerificationKey(pgk, alpha)
	rsk := sig.RandomizedSigningKey(sk, alpha)

	amountCipherSender := elgamal.Encrypt(amount, randomness, ekSender.Point)
	feeCipherSender := elgamal.Encrypt(fee, randomness, ekSender.Point)
	amountCipherRecipient := elgamal.Encrypt(amount, randomness, ekRecipient.Point)

	pub := PublicInputValues{
		EncKeySender:    ekSender.Point,
		EncKeyRecipient: ekRecipient.Point,
		CLeftSender:     amountCipherSender.L,
		CLeftRecipient:  amountCipherRecipient.L,
		CRight:          amountCipherSender.R,
		FLeftSender:     feeCipherSender.L,
		BalanceLeft:     balanceCT.L,
		BalanceRight:    balanceCT.R,
		Rvk:             rvk,
	}

	pgkX, pgkY := curve.PointToNative(pgk.Point)
	ekRecX, ekRecY := curve.PointToNative(ekRecipient.Point)
	balLX, balLY := curve.PointToNative(balanceCT.L)
	balRX, balRY := curve.PointToNative(balanceCT.R)

	assignment := &Circuit{
		PublicInputs:        pub.ToCircuit(),
		Amount:              amount,
		RemainingBalance:    remainingBalance,
		Fee:                 fee,
		Randomness:          randomness.String(),
		Alpha:               alpha.String(),
		DecryptionKeySender: dk.Scalar.String(),
		ProofGenerationKeyX: pgkX.String(),
		ProofGenerationKeyY: pgkY.String(),
		EncKeyRecipientX:    ekRecX.String(),
		EncKeyRecipientY:    ekRecY.String(),
		BalanceCTLeftX:      balLX.String(),
		BalanceCTLeftY:      balLY.String(),
		BalanceCTRightX:     balRX.String(),
		BalanceCTRightY:     balRY.String(),
	}

	witness, err := frontend.NewWitness(assignment, curveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: witness assignment: %v", ErrSynthesisFailed, err)
	}

	proof, err := groth16.Prove(b.kc.ccs, b.kc.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	// Self-verify is a build-time smoke test only (spec.md §4.2 rationale):
	// the on-chain verifier runs against the chain's authoritative balance
	// ciphertext, not this one.
	publicWitness, err := frontend.NewWitness(assignment, curveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: public witness: %v", ErrMalformedVerifyingKey, err)
	}
	if err := groth16.Verify(proof, b.kc.vk, publicWitness); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerifyingKey, err)
	}

	proofBytes, err := marshalProof(proof)
	if err != nil {
		return nil, err
	}

	payload := &TransactionPayload{
		Proof:              proofBytes,
		EncKeySender:       ekSender.Point.Marshal(),
		EncKeyRecipient:    ekRecipient.Point.Marshal(),
		EncAmountRecipient: marshalCiphertext(amountCipherRecipient),
		EncAmountSender:    marshalCiphertext(amountCipherSender),
		EncFee:             marshalCiphertext(feeCipherSender),
		Rsk:                scalarTo32(rsk),
		Rvk:                rvk.Marshal(),
		EncBalance:         marshalCiphertext(balanceCT),
	}
	return payload, nil
}
