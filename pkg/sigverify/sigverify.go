// Package sigverify authenticates transactions with secp256k1 signatures.
// The signed message is the transaction's canonical signing bytes; the
// signer's address is recovered from the signature and compared to the
// claimed sender.
package sigverify

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/pipeline"
)

// Verifier implements pipeline.Verifier over 65-byte [R || S || V]
// signatures.
type Verifier struct{}

func New() Verifier {
	return Verifier{}
}

func (Verifier) Verify(addr common.Address, msg []byte, sig []byte) bool {
	if len(sig) != crypto.SignatureLength {
		return false
	}

	pub, err := crypto.Ecrecover(crypto.Keccak256(msg), sig)
	if err != nil {
		return false
	}

	pubkey, err := crypto.UnmarshalPubkey(pub)
	if err != nil {
		return false
	}

	return crypto.PubkeyToAddress(*pubkey) == addr
}

// Sign populates the transaction's signature with the key's signature over
// its canonical signing bytes.
func Sign(tx *pipeline.Transaction, key *ecdsa.PrivateKey) error {
	msg, err := tx.SigningBytes()
	if err != nil {
		return err
	}

	sig, err := crypto.Sign(crypto.Keccak256(msg), key)
	if err != nil {
		return errors.Wrap(err, "signing transaction")
	}

	tx.Signature = sig

	return nil
}

// AddressOf derives the account address controlled by the key.
func AddressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}
