package transfer

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/shieldedpay/transferzk/internal/curve"
	"github.com/shieldedpay/transferzk/internal/elgamal"
	"github.com/shieldedpay/transferzk/internal/keys"
)

func testSeed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

type testParties struct {
	senderSK    keys.SpendingKey
	senderEK    keys.EncryptionKey
	recipientEK keys.EncryptionKey
}

func newTestParties(t *testing.T) testParties {
	t.Helper()
	senderSK := keys.DeriveSpendingKey(testSeed(0x11))
	senderPGK := keys.DeriveProofGenerationKey(senderSK)
	senderDK, err := keys.DeriveDecryptionKey(senderPGK)
	if err != nil {
		t.Fatalf("sender decryption key: %v", err)
	}
	senderEK := keys.EncryptionKeyOf(senderDK)

	recipientSK := keys.DeriveSpendingKey(testSeed(0x22))
	recipientPGK := keys.DeriveProofGenerationKey(recipientSK)
	recipientDK, err := keys.DeriveDecryptionKey(recipientPGK)
	if err != nil {
		t.Fatalf("recipient decryption key: %v", err)
	}
	recipientEK := keys.EncryptionKeyOf(recipientDK)

	return testParties{senderSK: senderSK, senderEK: senderEK, recipientEK: recipientEK}
}

func encryptBalance(t *testing.T, balance uint32, ek curve.Point) elgamal.Ciphertext {
	t.Helper()
	r, err := curve.RandomScalar(rand.Read)
	if err != nil {
		t.Fatalf("balance randomness: %v", err)
	}
	return elgamal.Encrypt(balance, r, ek)
}

// TestBuilderProveBaseline mirrors spec.md §8 scenario 1: amount=10, fee=1,
// current_balance=27, remaining_balance=16 must produce a self-verifying
// proof.
func TestBuilderProveBaseline(t *testing.T) {
	kc, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	builder := NewBuilder(kc)
	parties := newTestParties(t)
	balanceCT := encryptBalance(t, 27, parties.senderEK.Point)

	payload, err := builder.Prove(10, 1, 16, parties.senderSK, parties.recipientEK, balanceCT, rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	var zeroProof [192]byte
	if payload.Proof == zeroProof {
		t.Errorf("expected non-zero proof bytes")
	}
}

// TestBuilderProveOverflowRejected mirrors spec.md §8 scenario 2: the same
// inputs but remaining_balance=17 must fail synthesis, since the balance
// integrity equation only holds for remaining_balance=16.
func TestBuilderProveOverflowRejected(t *testing.T) {
	kc, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	builder := NewBuilder(kc)
	parties := newTestParties(t)
	balanceCT := encryptBalance(t, 27, parties.senderEK.Point)

	if _, err := builder.Prove(10, 1, 17, parties.senderSK, parties.recipientEK, balanceCT, rand.Reader); err == nil {
		t.Fatalf("expected synthesis failure for a remaining balance inconsistent with the encrypted balance")
	}
}

// TestBuilderProveUnderflowRejected mirrors spec.md §8 scenario 3: amount
// exceeds balance, so no remaining_balance in range satisfies the circuit.
func TestBuilderProveUnderflowRejected(t *testing.T) {
	kc, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	builder := NewBuilder(kc)
	parties := newTestParties(t)
	balanceCT := encryptBalance(t, 27, parties.senderEK.Point)

	if _, err := builder.Prove(28, 0, 0, parties.senderSK, parties.recipientEK, balanceCT, rand.Reader); err == nil {
		t.Fatalf("expected synthesis failure when amount exceeds balance")
	}
}

// splitCiphertext unpacks a TransactionPayload's L||R encoded ciphertext
// field back into its two curve points.
func splitCiphertext(b [64]byte) (l, r curve.Point, err error) {
	var lb, rb [32]byte
	copy(lb[:], b[0:32])
	copy(rb[:], b[32:64])
	l, err = curve.Unmarshal(lb)
	if err != nil {
		return curve.Point{}, curve.Point{}, fmt.Errorf("left half: %w", err)
	}
	r, err = curve.Unmarshal(rb)
	if err != nil {
		return curve.Point{}, curve.Point{}, fmt.Errorf("right half: %w", err)
	}
	return l, r, nil
}

// publicInputValuesFromPayload reconstructs the native public-input vector
// from a TransactionPayload's wire bytes alone, the same reconstruction a
// verifier with no access to the builder's in-memory assignment would have
// to perform.
func publicInputValuesFromPayload(payload *TransactionPayload) (PublicInputValues, error) {
	ekSender, err := curve.Unmarshal(payload.EncKeySender)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc key sender: %w", err)
	}
	ekRecipient, err := curve.Unmarshal(payload.EncKeyRecipient)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc key recipient: %w", err)
	}
	amountCipherSenderL, amountCipherSenderR, err := splitCiphertext(payload.EncAmountSender)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc amount sender: %w", err)
	}
	amountCipherRecipientL, _, err := splitCiphertext(payload.EncAmountRecipient)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc amount recipient: %w", err)
	}
	feeCipherSenderL, _, err := splitCiphertext(payload.EncFee)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc fee: %w", err)
	}
	balanceL, balanceR, err := splitCiphertext(payload.EncBalance)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("enc balance: %w", err)
	}
	rvk, err := curve.Unmarshal(payload.Rvk)
	if err != nil {
		return PublicInputValues{}, fmt.Errorf("rvk: %w", err)
	}

	return PublicInputValues{
		EncKeySender:    ekSender,
		EncKeyRecipient: ekRecipient,
		CLeftSender:     amountCipherSenderL,
		CLeftRecipient:  amountCipherRecipientL,
		CRight:          amountCipherSenderR,
		FLeftSender:     feeCipherSenderL,
		BalanceLeft:     balanceL,
		BalanceRight:    balanceR,
		Rvk:             rvk,
	}, nil
}

// mustPublicWitness builds a public-only witness for Circuit from pub,
// filling every private field with the placeholder value "0": PublicOnly
// parses but then discards private fields, so their value never affects
// the resulting witness.
func mustPublicWitness(t *testing.T, pub PublicInputValues) frontend.Witness {
	t.Helper()
	assignment := &Circuit{
		PublicInputs:        pub.ToCircuit(),
		Amount:              "0",
		RemainingBalance:    "0",
		Fee:                 "0",
		Randomness:          "0",
		Alpha:               "0",
		DecryptionKeySender: "0",
		ProofGenerationKeyX: "0",
		ProofGenerationKeyY: "0",
		EncKeyRecipientX:    "0",
		EncKeyRecipientY:    "0",
		BalanceCTLeftX:      "0",
		BalanceCTLeftY:      "0",
		BalanceCTRightX:     "0",
		BalanceCTRightY:     "0",
	}
	w, err := frontend.NewWitness(assignment, curveID.ScalarField(), frontend.PublicOnly())
	if err != nil {
		t.Fatalf("public witness: %v", err)
	}
	return w
}

// TestBuilderProveRejectsTamperedPublicInput mirrors spec.md §8 scenario 5:
// a verifier checking a valid proof against a public input vector with one
// scalar flipped must reject it.
func TestBuilderProveRejectsTamperedPublicInput(t *testing.T) {
	kc, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	builder := NewBuilder(kc)
	parties := newTestParties(t)
	balanceCT := encryptBalance(t, 27, parties.senderEK.Point)

	payload, err := builder.Prove(10, 1, 16, parties.senderSK, parties.recipientEK, balanceCT, rand.Reader)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	proof, err := unmarshalProof(curveID, payload.Proof)
	if err != nil {
		t.Fatalf("unmarshal proof: %v", err)
	}

	pub, err := publicInputValuesFromPayload(payload)
	if err != nil {
		t.Fatalf("reconstruct public inputs: %v", err)
	}

	validWitness := mustPublicWitness(t, pub)
	if err := groth16.Verify(proof, kc.vk, validWitness); err != nil {
		t.Fatalf("expected the untampered public witness to verify: %v", err)
	}

	var one fr.Element
	one.SetOne()
	tampered := pub
	tampered.CRight.X.Add(&tampered.CRight.X, &one)

	tamperedWitness := mustPublicWitness(t, tampered)
	if err := groth16.Verify(proof, kc.vk, tamperedWitness); err == nil {
		t.Fatalf("expected verification to fail against a tampered public input")
	}
}

// TestBuilderProveSmallOrderRecipientRejected mirrors spec.md §8 scenario 6.
func TestBuilderProveSmallOrderRecipientRejected(t *testing.T) {
	kc, err := Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	builder := NewBuilder(kc)
	parties := newTestParties(t)
	balanceCT := encryptBalance(t, 27, parties.senderEK.Point)

	smallOrder := keys.EncryptionKey{Point: curve.Identity()}
	if _, err := builder.Prove(10, 1, 16, parties.senderSK, smallOrder, balanceCT, rand.Reader); err == nil {
		t.Fatalf("expected synthesis failure for a small-order recipient key")
	}
}
