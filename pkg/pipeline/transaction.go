package pipeline

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
)

// Method selects the contract operation a transaction invokes.
type Method uint8

const (
	MethodBalanceOf Method = iota
	MethodTransfer
)

func (m Method) String() string {
	switch m {
	case MethodBalanceOf:
		return "balance_of"
	case MethodTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Transaction is a signed user request. Sequence numbers are chosen by the
// sender, are unique per sender, and need not arrive in increasing order.
// To and Amount are meaningful for MethodTransfer only.
type Transaction struct {
	Sender    common.Address
	Sequence  uint64
	Method    Method
	Contract  ledger.TokenID
	To        common.Address
	Amount    uint64
	Signature []byte
}

// SigningBytes canonicalizes every field except the signature into a
// deterministic, injective byte string. Signatures are made and checked over
// these bytes.
func (tx *Transaction) SigningBytes() ([]byte, error) {
	b, err := rlp.EncodeToBytes([]interface{}{
		tx.Sender,
		tx.Sequence,
		uint8(tx.Method),
		string(tx.Contract),
		tx.To,
		tx.Amount,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding transaction for signing")
	}

	return b, nil
}

// Receipt is returned for every transaction whose business operation
// succeeded. Balance is the queried balance for a BalanceOf, or the sender's
// post-transfer balance for a Transfer.
type Receipt struct {
	ID       uuid.UUID
	Sender   common.Address
	Sequence uint64
	Method   Method
	Contract ledger.TokenID
	Balance  uint64
}
