package transfer

import (
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/shieldedpay/transferzk/internal/curve"
	"github.com/shieldedpay/transferzk/internal/elgamal"
	"github.com/shieldedpay/transferzk/internal/keys"
	"github.com/shieldedpay/transferzk/internal/sig"
)

// EpochPublicInputs extends PublicInputs with the commented-out g_epoch/
// nonce pair spec.md §9 found in one prover variant but not in the base
// circuit. It embeds PublicInputs and adds the two points; the base Circuit
// embeds PublicInputs directly, never this struct, so it cannot pick up
// these two points by struct composition.
type EpochPublicInputs struct {
	PublicInputs
	GEpochX, GEpochY frontend.Variable `gnark:",public"`
	NonceX, NonceY   frontend.Variable `gnark:",public"`
}

// EpochCircuit is the 22-exposed-scalar transfer variant (spec.md §9, first
// open question): identical to Circuit except it additionally witnesses
// g_epoch and enforces nonce = dk*g_epoch, both exposed. Kept as a distinct
// type from Circuit rather than a shared one with an optional field, per
// spec.md's explicit instruction not to silently merge the two.
type EpochCircuit struct {
	EpochPublicInputs

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
	GEpochWitnessX      frontend.Variable
	GEpochWitnessY      frontend.Variable
}

func (c *EpochCircuit) Define(api frontend.API) error {
	base := &Circuit{
		PublicInputs:        c.PublicInputs,
		Amount:              c.Amount,
		RemainingBalance:    c.RemainingBalance,
		Fee:                 c.Fee,
		Randomness:          c.Randomness,
		Alpha:               c.Alpha,
		DecryptionKeySender: c.DecryptionKeySender,
		ProofGenerationKeyX: c.ProofGenerationKeyX,
		ProofGenerationKeyY: c.ProofGenerationKeyY,
		EncKeyRecipientX:    c.EncKeyRecipientX,
		EncKeyRecipientY:    c.EncKeyRecipientY,
		BalanceCTLeftX:      c.BalanceCTLeftX,
		BalanceCTLeftY:      c.BalanceCTLeftY,
		BalanceCTRightX:     c.BalanceCTRightX,
		BalanceCTRightY:     c.BalanceCTRightY,
	}
	if err := base.Define(api); err != nil {
		return err
	}

	ec, err := curve.NewCurve(api)
	if err != nil {
		return err
	}

	gEpoch := curve.Witness(ec, c.GEpochWitnessX, c.GEpochWitnessY)
	curve.AssertNotSmallOrder(api, ec, gEpoch)
	api.AssertIsEqual(c.GEpochX, gEpoch.X)
	api.AssertIsEqual(c.GEpochY, gEpoch.Y)

	nonce := curve.Mul(ec, gEpoch, c.DecryptionKeySender)
	api.AssertIsEqual(c.NonceX, nonce.X)
	api.AssertIsEqual(c.NonceY, nonce.Y)

	return nil
}

// EpochBuilder generates proofs against the 22-exposed-scalar variant,
// binding a per-epoch generator g_epoch and a replay-tag nonce = dk*g_epoch
// into the public inputs and the payload's nonce field.
type EpochBuilder struct {
	kc *KeyContext
}

// NewEpochBuilder wraps an existing epoch KeyContext in an EpochBuilder,
// mirroring NewBuilder for the base circuit.
func NewEpochBuilder(kc *KeyContext) *EpochBuilder {
	return &EpochBuilder{kc: kc}
}

// SetupEpochKeyContext compiles EpochCircuit and runs trusted setup for it.
// It is kept separate from Setup because EpochCircuit and Circuit are
// different R1CS instances with different proving/verifying keys, so they
// need their own KeyContext and their own pair of key files.
func SetupEpochKeyContext() (*KeyContext, error) {
	var circuit EpochCircuit
	ccs, err := frontend.Compile(curveID.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %v", ErrSynthesisFailed, err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("%w: setup: %v", ErrSynthesisFailed, err)
	}
	return &KeyContext{ccs: ccs, pk: pk, vk: vk}, nil
}

// ReadEpochKeyContext loads a previously-written epoch proving key and
// verifying key, recompiling EpochCircuit fresh, mirroring Read for the
// base circuit.
func ReadEpochKeyContext(pkPath, vkPath string) (*KeyContext, error) {
	var circuit EpochCircuit
	ccs, err := frontend.Compile(curveID.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %v", ErrSynthesisFailed, err)
	}

	pk := groth16.NewProvingKey(curveID)
	if err := readBuffered(pkPath, pk.ReadFrom); err != nil {
		return nil, fmt.Errorf("%w: epoch proving key: %v", ErrIO, err)
	}
	vk := groth16.NewVerifyingKey(curveID)
	if err := readBuffered(vkPath, vk.ReadFrom); err != nil {
		return nil, fmt.Errorf("%w: epoch verifying key: %v", ErrIO, err)
	}
	return &KeyContext{ccs: ccs, pk: pk, vk: vk}, nil
}

// SetupEpoch runs a fresh trusted setup and wraps the resulting KeyContext
// in an EpochBuilder in one step, for callers (tests, a first-run service)
// that have no persisted epoch key files to load instead.
func SetupEpoch() (*EpochBuilder, error) {
	kc, err := SetupEpochKeyContext()
	if err != nil {
		return nil, err
	}
	return NewEpochBuilder(kc), nil
}

// Prove mirrors Builder.Prove, additionally witnessing gEpoch and filling
// the payload's Nonce field with dk*gEpoch.
func (b *EpochBuilder) Prove(
	amount, fee, remainingBalance uint32,
	sk keys.SpendingKey,
	ekRecipient keys.EncryptionKey,
	balanceCT elgamal.Ciphertext,
	gEpoch curve.Point,
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
	nonce := gEpoch.ScalarMul(dk.Scalar)

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
	gEpochX, gEpochY := curve.PointToNative(gEpoch)
	nonceX, nonceY := curve.PointToNative(nonce)

	assignment := &EpochCircuit{
		EpochPublicInputs: EpochPublicInputs{
			PublicInputs: pub.ToCircuit(),
			GEpochX:      gEpochX.String(),
			GEpochY:      gEpochY.String(),
			NonceX:       nonceX.String(),
			NonceY:       nonceY.String(),
		},
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
		GEpochWitnessX:      gEpochX.String(),
		GEpochWitnessY:      gEpochY.String(),
	}

	witness, err := frontend.NewWitness(assignment, curveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: witness assignment: %v", ErrSynthesisFailed, err)
	}
	proof, err := groth16.Prove(b.kc.ccs, b.kc.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

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
		Nonce:              nonce.Marshal(),
	}
	return payload, nil
}
