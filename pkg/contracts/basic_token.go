package contracts

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-common/pkg/logger"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
)

// BasicToken is a minimal fungible token backed by the shared ledger. Its
// initial supply is credited to an airdrop list at construction.
type BasicToken struct {
	id     ledger.TokenID
	ledger *ledger.Ledger
}

func NewBasicToken(id ledger.TokenID, l *ledger.Ledger, airdrop []common.Address, initialBalance uint64) *BasicToken {
	for _, addr := range airdrop {
		l.Credit(addr, id, initialBalance)
	}

	if len(airdrop) > 0 {
		logger.Infof("token %s: airdropped %d to %d addresses", id, initialBalance, len(airdrop))
	}

	return &BasicToken{id: id, ledger: l}
}

func (t *BasicToken) ID() ledger.TokenID {
	return t.id
}

func (t *BasicToken) BalanceOf(addr common.Address) uint64 {
	return t.ledger.BalanceOf(addr, t.id)
}

func (t *BasicToken) Transfer(from, to common.Address, amount uint64) error {
	return t.ledger.Transfer(from, to, t.id, amount)
}
