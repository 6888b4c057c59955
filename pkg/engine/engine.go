// Package engine wires the sequencing pipeline to its configuration, runs a
// bounded pool of submission workers, and optionally persists receipts.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/config"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/contracts"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/database"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/pipeline"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/sequencer"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/sigverify"
)

const historyDropIntervalCheck = 30 * time.Minute

type request struct {
	tx   *pipeline.Transaction
	resp chan response
}

type response struct {
	receipt *pipeline.Receipt
	err     error
}

type Engine struct {
	pipeline *pipeline.Pipeline
	ledger   *ledger.Ledger
	registry *contracts.Registry
	db       *database.DB
	build    *config.BuildConfig

	queue               chan *request
	workers             int
	historyDropInterval uint64
	backoffMaxElapsed   time.Duration
	requestTimeout      time.Duration

	height atomic.Uint64
}

// New builds an engine from config. db may be nil, in which case no receipt
// is persisted and the engine runs fully in memory.
func New(cfg *config.BaseConfig, db *database.DB, build *config.BuildConfig) (*Engine, error) {
	l := ledger.New()

	tokens := make([]contracts.TokenContract, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		airdrop, err := parseAirdrop(t.Airdrop)
		if err != nil {
			return nil, errors.Wrapf(err, "token %q", t.ID)
		}

		tokens = append(tokens, contracts.NewBasicToken(ledger.TokenID(t.ID), l, airdrop, t.InitialBalance))
	}

	registry, err := contracts.NewRegistry(tokens...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		pipeline:            pipeline.New(sigverify.New(), sequencer.New(cfg.Sequencer.Window), registry),
		ledger:              l,
		registry:            registry,
		db:                  db,
		build:               build,
		queue:               make(chan *request, cfg.Engine.QueueSize),
		workers:             cfg.Engine.MaxConcurrency,
		historyDropInterval: cfg.DB.HistoryDrop,
		backoffMaxElapsed:   time.Duration(cfg.Timeout.BackoffMaxElapsedTimeSeconds) * time.Second,
		requestTimeout:      time.Duration(cfg.Timeout.RequestTimeoutMillis) * time.Millisecond,
	}, nil
}

func parseAirdrop(addrs []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(addrs))
	for _, s := range addrs {
		if !common.IsHexAddress(s) {
			return nil, errors.Errorf("invalid airdrop address %q", s)
		}

		out = append(out, common.HexToAddress(s))
	}

	return out, nil
}

// Run processes submissions until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.db != nil {
		state, err := e.db.GetState(ctx)
		if err != nil {
			return err
		}

		e.height.Store(state.Height)
		logger.Infof("engine resuming at height %d", state.Height)
	}

	eg, ctx := errgroup.WithContext(ctx)

	for i := 0; i < e.workers; i++ {
		eg.Go(func() error {
			return e.worker(ctx)
		})
	}

	if e.db != nil && e.historyDropInterval > 0 {
		eg.Go(func() error {
			return e.historyDropLoop(ctx)
		})
	}

	logger.Infof("engine started with %d workers", e.workers)

	return eg.Wait()
}

func (e *Engine) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-e.queue:
			receipt, err := e.pipeline.Submit(req.tx)

			if consumed(err) {
				height := e.height.Add(1)
				e.persist(ctx, req.tx, receipt, err, height)
			}

			req.resp <- response{receipt: receipt, err: err}
		}
	}
}

// consumed reports whether the submission burned its sequence number, which
// is when a receipt row is due: successes, and business failures past
// admission.
func consumed(err error) bool {
	if err == nil {
		return true
	}

	return errors.Is(err, pipeline.ErrInsufficientFunds) || errors.Is(err, pipeline.ErrUnknownContract)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, pipeline.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, pipeline.ErrUnknownContract):
		return "unknown_contract"
	default:
		return "failed"
	}
}

// persist writes the receipt row with retries. The store is advisory: a
// write that fails past the backoff budget is logged and dropped rather
// than failing the already-committed submission.
func (e *Engine) persist(ctx context.Context, tx *pipeline.Transaction, receipt *pipeline.Receipt, submitErr error, height uint64) {
	if e.db == nil {
		return
	}

	row := &database.Receipt{
		ID:        uuid.New().String(),
		Sender:    tx.Sender.Hex(),
		Sequence:  tx.Sequence,
		Method:    tx.Method.String(),
		Contract:  string(tx.Contract),
		Status:    statusOf(submitErr),
		Timestamp: time.Now(),
	}

	if tx.Method == pipeline.MethodTransfer {
		row.Recipient = tx.To.Hex()
		row.Amount = tx.Amount
	}

	if receipt != nil {
		row.ID = receipt.ID.String()
		row.Balance = receipt.Balance
	}

	err := backoff.RetryNotify(
		func() error {
			return e.db.SaveReceipts(ctx, []*database.Receipt{row}, database.NewState(height))
		},
		backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(e.backoffMaxElapsed)), ctx),
		func(err error, d time.Duration) {
			logger.Errorf("receipt store error: %v. Will retry after %v", err, d)
		},
	)
	if err != nil {
		logger.Errorf("dropping receipt for sender %s sequence %d: %v", row.Sender, row.Sequence, err)
	}
}

func (e *Engine) historyDropLoop(ctx context.Context) error {
	timer := time.NewTicker(historyDropIntervalCheck)
	defer timer.Stop()

	for {
		if err := e.db.DropHistoryIteration(ctx, e.historyDropInterval); err != nil {
			logger.Errorf("history drop error: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Submit runs one transaction through the pipeline via the worker pool and
// returns its receipt or typed error synchronously.
func (e *Engine) Submit(ctx context.Context, tx *pipeline.Transaction) (*pipeline.Receipt, error) {
	req := &request{tx: tx, resp: make(chan response, 1)}

	select {
	case e.queue <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.resp:
		return res.receipt, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubmitWithRetry retries retriable outcomes (backpressure and in-flight
// duplicates) with exponential backoff; terminal errors return immediately.
func (e *Engine) SubmitWithRetry(ctx context.Context, tx *pipeline.Transaction) (*pipeline.Receipt, error) {
	var receipt *pipeline.Receipt

	err := backoff.RetryNotify(
		func() error {
			r, err := e.Submit(ctx, tx)
			if err != nil {
				if pipeline.Retriable(err) {
					return err
				}

				return backoff.Permanent(err)
			}

			receipt = r
			return nil
		},
		backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(e.backoffMaxElapsed)), ctx),
		func(err error, d time.Duration) {
			logger.Debugf("submission backpressured: %v. Will retry after %v", err, d)
		},
	)
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// BalanceOf answers the read-only query API; it always succeeds and
// defaults to 0 for unknown (address, token) pairs.
func (e *Engine) BalanceOf(addr common.Address, token ledger.TokenID) uint64 {
	return e.ledger.BalanceOf(addr, token)
}

// SequenceState reports the watermark and pending-set size for an address.
func (e *Engine) SequenceState(addr common.Address) (watermark uint64, pending int) {
	return e.pipeline.SequenceState(addr)
}

// Height is the number of consumed sequence numbers across all accounts.
func (e *Engine) Height() uint64 {
	return e.height.Load()
}

// Contracts lists the registered contract IDs.
func (e *Engine) Contracts() []ledger.TokenID {
	return e.registry.IDs()
}

// Build returns the build identification, or nil when not available.
func (e *Engine) Build() *config.BuildConfig {
	return e.build
}
