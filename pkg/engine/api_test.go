package engine

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/pipeline"
)

func submitArgs(t *testing.T, tx *pipeline.Transaction) TransactionArgs {
	t.Helper()

	args := TransactionArgs{
		Sender:    tx.Sender,
		Sequence:  hexutil.Uint64(tx.Sequence),
		Contract:  string(tx.Contract),
		Signature: tx.Signature,
	}

	switch tx.Method {
	case pipeline.MethodBalanceOf:
		args.Method = "balance_of"
	case pipeline.MethodTransfer:
		args.Method = "transfer"
		to := tx.To
		amount := hexutil.Uint64(tx.Amount)
		args.To = &to
		args.Amount = &amount
	}

	return args
}

func TestAPISubmitTransaction(t *testing.T) {
	key, addr := newKey(t)
	e := startEngine(t, testConfig(8, []string{addr.Hex()}))

	api := NewAPI(e)
	ctx := context.Background()

	tx := signed(t, key, pipeline.Transaction{
		Sequence: 1,
		Method:   pipeline.MethodBalanceOf,
		Contract: "USDC",
	})

	result, err := api.SubmitTransaction(ctx, submitArgs(t, tx))
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(1000), result.Balance)
	require.NotEmpty(t, result.ID)

	// Replay surfaces with its dedicated error code.
	_, err = api.SubmitTransaction(ctx, submitArgs(t, tx))
	require.Error(t, err)

	rpcErr, ok := err.(rpc.Error)
	require.True(t, ok)
	require.Equal(t, -32002, rpcErr.ErrorCode())
}

func TestAPISubmitTransactionValidation(t *testing.T) {
	key, addr := newKey(t)
	e := startEngine(t, testConfig(8, []string{addr.Hex()}))

	api := NewAPI(e)
	ctx := context.Background()

	tx := signed(t, key, pipeline.Transaction{
		Sequence: 1,
		Method:   pipeline.MethodTransfer,
		Contract: "USDC",
		To:       addr,
		Amount:   1,
	})

	args := submitArgs(t, tx)
	args.To = nil
	args.Amount = nil

	_, err := api.SubmitTransaction(ctx, args)
	require.ErrorContains(t, err, "transfer requires to and amount")

	args = submitArgs(t, tx)
	args.Method = "mint"

	_, err = api.SubmitTransaction(ctx, args)
	require.ErrorContains(t, err, "unknown method")
}

func TestAPIQueries(t *testing.T) {
	key, addr := newKey(t)
	e := startEngine(t, testConfig(8, []string{addr.Hex()}))

	api := NewAPI(e)
	ctx := context.Background()

	require.Equal(t, hexutil.Uint64(1000), api.BalanceOf(addr, "USDC"))
	require.Equal(t, hexutil.Uint64(0), api.BalanceOf(addr, "DOGE"))

	_, err := api.SubmitTransaction(ctx, submitArgs(t, signed(t, key, pipeline.Transaction{
		Sequence: 5,
		Method:   pipeline.MethodBalanceOf,
		Contract: "USDC",
	})))
	require.NoError(t, err)

	state := api.SequenceState(addr)
	require.Equal(t, hexutil.Uint64(0), state.Watermark)
	require.Equal(t, 1, state.Pending)

	status := api.Status()
	require.Equal(t, hexutil.Uint64(1), status.Height)
	require.Equal(t, []string{"USDC"}, status.Contracts)
}
