// Package pipeline orchestrates transaction admission: verify the signature,
// reserve the sequence number, dispatch to the contract, then mark the
// sequence number consumed whether or not the business operation succeeded.
package pipeline

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/contracts"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/ledger"
	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/sequencer"
)

var (
	// ErrInvalidSignature is an authentication failure. Never retried.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrReplayed means the sequence number has already been consumed.
	ErrReplayed = errors.New("sequence number replayed")
	// ErrDuplicate means the same submission is still in flight.
	ErrDuplicate = errors.New("duplicate in-flight submission")
	// ErrOutOfWindow is backpressure; resubmit once the watermark advances.
	ErrOutOfWindow = errors.New("sequence number out of window")

	// ErrUnknownContract and ErrInsufficientFunds are surfaced from the
	// registry and the ledger unchanged.
	ErrUnknownContract   = contracts.ErrUnknownContract
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
)

// Retriable reports whether a submission error is safe to retry with the
// same sequence number. Only backpressure and in-flight duplicates qualify;
// neither mutates ledger state.
func Retriable(err error) bool {
	return errors.Is(err, ErrOutOfWindow) || errors.Is(err, ErrDuplicate)
}

// Verifier authenticates a message against a sender address. The pipeline
// treats it as a black box.
type Verifier interface {
	Verify(addr common.Address, msg []byte, sig []byte) bool
}

type Pipeline struct {
	verifier  Verifier
	sequencer *sequencer.Sequencer
	registry  *contracts.Registry
}

func New(verifier Verifier, seq *sequencer.Sequencer, registry *contracts.Registry) *Pipeline {
	return &Pipeline{
		verifier:  verifier,
		sequencer: seq,
		registry:  registry,
	}
}

// Submit runs a transaction through verify, admit, dispatch and commit.
//
// Once a sequence number is admitted it is consumed no matter how dispatch
// turns out: a transfer that fails with ErrInsufficientFunds, or a
// transaction naming an unknown contract, still burns its sequence number.
// That is the defense against replay-by-resubmission of a transaction whose
// business effect failed; the sender must pick a fresh sequence number to
// try again.
func (p *Pipeline) Submit(tx *Transaction) (*Receipt, error) {
	msg, err := tx.SigningBytes()
	if err != nil {
		return nil, err
	}

	if !p.verifier.Verify(tx.Sender, msg, tx.Signature) {
		return nil, errors.Wrapf(ErrInvalidSignature, "sender %s sequence %d", tx.Sender, tx.Sequence)
	}

	switch outcome := p.sequencer.Admit(tx.Sender, tx.Sequence); outcome {
	case sequencer.Admitted:
	case sequencer.Replayed:
		return nil, errors.Wrapf(ErrReplayed, "sender %s sequence %d", tx.Sender, tx.Sequence)
	case sequencer.Duplicate:
		return nil, errors.Wrapf(ErrDuplicate, "sender %s sequence %d", tx.Sender, tx.Sequence)
	case sequencer.OutOfWindow:
		return nil, errors.Wrapf(ErrOutOfWindow, "sender %s sequence %d", tx.Sender, tx.Sequence)
	default:
		return nil, errors.Errorf("unexpected admission outcome %v", outcome)
	}

	defer p.sequencer.Commit(tx.Sender, tx.Sequence)

	return p.dispatch(tx)
}

func (p *Pipeline) dispatch(tx *Transaction) (*Receipt, error) {
	contract, err := p.registry.Get(tx.Contract)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		ID:       uuid.New(),
		Sender:   tx.Sender,
		Sequence: tx.Sequence,
		Method:   tx.Method,
		Contract: tx.Contract,
	}

	switch tx.Method {
	case MethodBalanceOf:
		receipt.Balance = contract.BalanceOf(tx.Sender)

	case MethodTransfer:
		if err := contract.Transfer(tx.Sender, tx.To, tx.Amount); err != nil {
			return nil, err
		}

		logger.Debugf("transfer of %d %s from %s to %s", tx.Amount, tx.Contract, tx.Sender, tx.To)

		receipt.Balance = contract.BalanceOf(tx.Sender)

	default:
		return nil, errors.Errorf("unknown method %d", tx.Method)
	}

	return receipt, nil
}

// SequenceState exposes the sender's watermark and pending-set size so
// callers can observe progress before retrying an out-of-window submission.
func (p *Pipeline) SequenceState(addr common.Address) (watermark uint64, pending int) {
	return p.sequencer.State(addr)
}
