package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
)

var (
	addr1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
	addr2 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	addr3 = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func TestBasicTokenAirdrop(t *testing.T) {
	l := ledger.New()

	usdc := NewBasicToken("USDC", l, []common.Address{addr1, addr2}, 1000)

	require.Equal(t, uint64(1000), usdc.BalanceOf(addr1))
	require.Equal(t, uint64(1000), usdc.BalanceOf(addr2))
	require.Zero(t, usdc.BalanceOf(addr3))
}

func TestBasicTokenTransfer(t *testing.T) {
	l := ledger.New()

	usdc := NewBasicToken("USDC", l, []common.Address{addr1}, 1000)
	wbtc := NewBasicToken("WBTC", l, []common.Address{addr1}, 500)

	require.NoError(t, usdc.Transfer(addr1, addr2, 100))

	require.Equal(t, uint64(900), usdc.BalanceOf(addr1))
	require.Equal(t, uint64(100), usdc.BalanceOf(addr2))

	// Balances are namespaced per token.
	require.Equal(t, uint64(500), wbtc.BalanceOf(addr1))
	require.Zero(t, wbtc.BalanceOf(addr2))

	err := wbtc.Transfer(addr2, addr1, 1)
	require.True(t, errors.Is(err, ledger.ErrInsufficientFunds))
}

func TestRegistry(t *testing.T) {
	l := ledger.New()

	usdc := NewBasicToken("USDC", l, nil, 0)
	wbtc := NewBasicToken("WBTC", l, nil, 0)

	r, err := NewRegistry(usdc, wbtc)
	require.NoError(t, err)

	got, err := r.Get("USDC")
	require.NoError(t, err)
	require.Equal(t, ledger.TokenID("USDC"), got.ID())

	_, err = r.Get("DOGE")
	require.True(t, errors.Is(err, ErrUnknownContract))

	require.ElementsMatch(t, []ledger.TokenID{"USDC", "WBTC"}, r.IDs())
}

func TestRegistryDuplicateID(t *testing.T) {
	l := ledger.New()

	_, err := NewRegistry(NewBasicToken("USDC", l, nil, 0), NewBasicToken("USDC", l, nil, 0))
	require.Error(t, err)
}
