package transfer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/shieldedpay/transferzk/internal/elgamal"
)

// TransactionPayload is the fixed-width, little-endian extrinsic layout
// spec.md §6 defines. Nonce is only populated by EpochBuilder.Prove; the
// base Builder leaves it the zero value, since the base circuit has no
// g_epoch witness to derive it from (spec.md §9's first open question).
type TransactionPayload struct {
	Proof               [192]byte
	EncKeySender        [32]byte
	EncKeyRecipient     [32]byte
	EncAmountRecipient  [64]byte // L || R
	EncAmountSender     [64]byte // L || R
	EncFee              [64]byte // L || R
	Rsk                 [32]byte
	Rvk                 [32]byte
	EncBalance          [64]byte // L || R
	Nonce               [32]byte
}

// MarshalBinary writes the payload's fixed-width fields out in struct
// order, the wire format cmd/transferproofd writes to its output file.
func (p *TransactionPayload) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, p); err != nil {
		return nil, fmt.Errorf("%w: payload marshal: %v", ErrIO, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary reads a payload previously written by MarshalBinary.
func (p *TransactionPayload) UnmarshalBinary(data []byte) error {
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, p); err != nil {
		return fmt.Errorf("%w: payload unmarshal: %v", ErrIO, err)
	}
	return nil
}

func marshalCiphertext(ct elgamal.Ciphertext) [64]byte {
	var out [64]byte
	l := ct.L.Marshal()
	r := ct.R.Marshal()
	copy(out[0:32], l[:])
	copy(out[32:64], r[:])
	return out
}

func marshalProof(proof groth16.Proof) ([192]byte, error) {
	var out [192]byte
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return out, fmt.Errorf("%w: proof marshal: %v", ErrIO, err)
	}
	if buf.Len() != len(out) {
		return out, fmt.Errorf("%w: unexpected proof size %d", ErrMalformedVerifyingKey, buf.Len())
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

func unmarshalProof(curveID ecc.ID, b [192]byte) (groth16.Proof, error) {
	proof := groth16.NewProof(curveID)
	if _, err := proof.ReadFrom(bytes.NewReader(b[:])); err != nil {
		return nil, fmt.Errorf("%w: proof unmarshal: %v", ErrIO, err)
	}
	return proof, nil
}

// scalarTo32 encodes s as 32 little-endian bytes.
func scalarTo32(s *big.Int) [32]byte {
	var out [32]byte
	b := s.Bytes()
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
