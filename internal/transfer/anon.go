package transfer

import (
	"errors"
	"io"

	"github.com/shieldedpay/transferzk/internal/elgamal"
	"github.com/shieldedpay/transferzk/internal/keys"
)

// ErrAnonymousTransferUnimplemented is returned by every AnonymousProver
// implementation registered against this package. spec.md §1/§9 mark the
// anonymous-set variant as declared in the sources but unspecified beyond
// its interface; this type exists so callers can compile against the
// intended shape without a real implementation existing yet.
var ErrAnonymousTransferUnimplemented = errors.New("transfer: anonymous-set transfer is not implemented")

// AnonymousProver is the interface a future anonymous-set transfer variant
// would satisfy: the same inputs as Builder.Prove, plus the anonymity set
// of candidate recipient keys the proof must hide the real recipient
// within. No implementation is provided; future work.
type AnonymousProver interface {
	ProveAnonymous(
		amount, fee, remainingBalance uint32,
		sk keys.SpendingKey,
		anonymitySet []keys.EncryptionKey,
		balanceCT elgamal.Ciphertext,
		rng io.Reader,
	) (*TransactionPayload, error)
}
