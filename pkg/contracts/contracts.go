// Package contracts defines the token contract capability set and the
// registry that owns every contract instance for the process lifetime.
package contracts

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
)

// ErrUnknownContract is returned when a transaction names a contract ID that
// was never registered. Configuration error, not retriable.
var ErrUnknownContract = errors.New("unknown contract")

// TokenContract is the capability set the pipeline dispatches to. Callers
// reach a contract only through its registry ID, never a raw handle.
type TokenContract interface {
	ID() ledger.TokenID
	BalanceOf(addr common.Address) uint64
	Transfer(from, to common.Address, amount uint64) error
}

// Registry maps contract IDs to contract instances. Registration happens
// once at construction; there is no runtime mutation path.
type Registry struct {
	contracts map[ledger.TokenID]TokenContract
}

func NewRegistry(contracts ...TokenContract) (*Registry, error) {
	r := &Registry{contracts: make(map[ledger.TokenID]TokenContract, len(contracts))}

	for _, c := range contracts {
		if _, ok := r.contracts[c.ID()]; ok {
			return nil, errors.Errorf("contract %q registered twice", c.ID())
		}

		r.contracts[c.ID()] = c
	}

	return r, nil
}

func (r *Registry) Get(id ledger.TokenID) (TokenContract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownContract, "contract %q", id)
	}

	return c, nil
}

// IDs lists the registered contract IDs.
func (r *Registry) IDs() []ledger.TokenID {
	ids := make([]ledger.TokenID, 0, len(r.contracts))
	for id := range r.contracts {
		ids = append(ids, id)
	}

	return ids
}
