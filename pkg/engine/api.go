package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/pipeline"
)

// API is the JSON-RPC surface, registered under the "ledger" namespace.
type API struct {
	engine *Engine
}

func NewAPI(e *Engine) *API {
	return &API{engine: e}
}

// TransactionArgs is the wire shape of a signed transaction. To and Amount
// are required for transfers and ignored for balance queries.
type TransactionArgs struct {
	Sender    common.Address  `json:"sender"`
	Sequence  hexutil.Uint64  `json:"sequence"`
	Method    string          `json:"method"`
	Contract  string          `json:"contract"`
	To        *common.Address `json:"to,omitempty"`
	Amount    *hexutil.Uint64 `json:"amount,omitempty"`
	Signature hexutil.Bytes   `json:"signature"`
}

func (args *TransactionArgs) toTransaction() (*pipeline.Transaction, error) {
	tx := &pipeline.Transaction{
		Sender:    args.Sender,
		Sequence:  uint64(args.Sequence),
		Contract:  ledger.TokenID(args.Contract),
		Signature: args.Signature,
	}

	switch args.Method {
	case "balance_of":
		tx.Method = pipeline.MethodBalanceOf
	case "transfer":
		tx.Method = pipeline.MethodTransfer

		if args.To == nil || args.Amount == nil {
			return nil, errors.New("transfer requires to and amount")
		}

		tx.To = *args.To
		tx.Amount = uint64(*args.Amount)
	default:
		return nil, errors.Errorf("unknown method %q", args.Method)
	}

	return tx, nil
}

type SubmitResult struct {
	ID       string         `json:"id"`
	Sequence hexutil.Uint64 `json:"sequence"`
	Balance  hexutil.Uint64 `json:"balance"`
}

func (api *API) SubmitTransaction(ctx context.Context, args TransactionArgs) (*SubmitResult, error) {
	tx, err := args.toTransaction()
	if err != nil {
		return nil, err
	}

	if api.engine.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, api.engine.requestTimeout)
		defer cancel()
	}

	receipt, err := api.engine.Submit(ctx, tx)
	if err != nil {
		return nil, &submitError{err: err}
	}

	return &SubmitResult{
		ID:       receipt.ID.String(),
		Sequence: hexutil.Uint64(receipt.Sequence),
		Balance:  hexutil.Uint64(receipt.Balance),
	}, nil
}

func (api *API) BalanceOf(addr common.Address, contract string) hexutil.Uint64 {
	return hexutil.Uint64(api.engine.BalanceOf(addr, ledger.TokenID(contract)))
}

type SequenceStateResult struct {
	Watermark hexutil.Uint64 `json:"watermark"`
	Pending   int            `json:"pending"`
}

// SequenceState lets a backpressured submitter observe watermark progress
// before retrying.
func (api *API) SequenceState(addr common.Address) *SequenceStateResult {
	watermark, pending := api.engine.SequenceState(addr)

	return &SequenceStateResult{
		Watermark: hexutil.Uint64(watermark),
		Pending:   pending,
	}
}

type StatusResult struct {
	Height    hexutil.Uint64 `json:"height"`
	Contracts []string       `json:"contracts"`
	Version   string         `json:"version,omitempty"`
	Commit    string         `json:"commit,omitempty"`
}

func (api *API) Status() *StatusResult {
	result := &StatusResult{
		Height: hexutil.Uint64(api.engine.Height()),
	}

	for _, id := range api.engine.Contracts() {
		result.Contracts = append(result.Contracts, string(id))
	}

	if build := api.engine.Build(); build != nil {
		result.Version = build.GitTag
		result.Commit = build.GitHash
	}

	return result
}

// submitError maps the pipeline taxonomy onto JSON-RPC error codes so
// clients can distinguish retriable backpressure from terminal failures.
type submitError struct {
	err error
}

func (e *submitError) Error() string {
	return e.err.Error()
}

func (e *submitError) ErrorCode() int {
	switch {
	case errors.Is(e.err, pipeline.ErrInvalidSignature):
		return -32001
	case errors.Is(e.err, pipeline.ErrReplayed):
		return -32002
	case errors.Is(e.err, pipeline.ErrDuplicate):
		return -32003
	case errors.Is(e.err, pipeline.ErrOutOfWindow):
		return -32004
	case errors.Is(e.err, pipeline.ErrUnknownContract):
		return -32005
	case errors.Is(e.err, pipeline.ErrInsufficientFunds):
		return -32006
	default:
		return -32000
	}
}

func (e *submitError) Unwrap() error {
	return e.err
}
