// Package sequencer decides, per account, whether a sender-chosen sequence
// number may execute now, must wait, or must never execute again.
//
// Each account is tracked as a low watermark (the highest sequence number
// forming a contiguous, fully committed prefix) plus a bounded set of
// sequence numbers admitted above the watermark. Committed numbers above a
// gap stay in the set until the gap closes, at which point they are folded
// into the watermark. This tolerates out-of-order delivery while keeping
// replay detection exact and memory bounded.
package sequencer

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome is the result of an admission attempt.
type Outcome int

const (
	// Admitted grants the caller a one-time right to execute the sequence
	// number. The caller must eventually call Commit for it.
	Admitted Outcome = iota
	// Replayed means the sequence number has already been committed. Final.
	Replayed
	// Duplicate means the sequence number is admitted but not yet
	// committed; another submission of it is still in flight.
	Duplicate
	// OutOfWindow means the pending set is full and the sequence number is
	// too far above the watermark. The caller may retry once the
	// watermark advances.
	OutOfWindow
)

func (o Outcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case Replayed:
		return "replayed"
	case Duplicate:
		return "duplicate"
	case OutOfWindow:
		return "out_of_window"
	default:
		return "unknown"
	}
}

// DefaultWindow bounds how far above the watermark a sequence number may be
// admitted speculatively when the pending set is full.
const DefaultWindow = 64

// accountState holds the replay state for a single address. pending maps an
// admitted sequence number to whether it has been committed; committed
// entries above a gap wait here until compaction folds them into the
// watermark.
type accountState struct {
	mu        sync.Mutex
	watermark uint64
	pending   map[uint64]bool
}

// Sequencer tracks per-address sequence state. Admission and commit for a
// single address are linearizable; different addresses proceed in parallel.
type Sequencer struct {
	window uint64

	mu       sync.RWMutex
	accounts map[common.Address]*accountState
}

func New(window uint64) *Sequencer {
	if window == 0 {
		window = DefaultWindow
	}

	return &Sequencer{
		window:   window,
		accounts: make(map[common.Address]*accountState),
	}
}

// Admit decides whether the given (address, sequence) pair may execute.
// On Admitted the sequence number is reserved and must be released with
// Commit; there is no path that frees a reservation back to unused.
func (s *Sequencer) Admit(addr common.Address, seq uint64) Outcome {
	st := s.account(addr)

	st.mu.Lock()
	defer st.mu.Unlock()

	if seq <= st.watermark {
		return Replayed
	}

	if committed, ok := st.pending[seq]; ok {
		if committed {
			return Replayed
		}

		return Duplicate
	}

	if uint64(len(st.pending)) >= s.window && seq-st.watermark > s.window {
		return OutOfWindow
	}

	st.pending[seq] = false

	return Admitted
}

// Commit records an admitted sequence number as consumed, whether or not the
// downstream operation succeeded, then folds the contiguous committed prefix
// into the watermark. Commit of a number that is not currently admitted is a
// no-op.
func (s *Sequencer) Commit(addr common.Address, seq uint64) {
	st := s.account(addr)

	st.mu.Lock()
	defer st.mu.Unlock()

	if committed, ok := st.pending[seq]; !ok || committed {
		return
	}

	st.pending[seq] = true

	for {
		committed, ok := st.pending[st.watermark+1]
		if !ok || !committed {
			return
		}

		delete(st.pending, st.watermark+1)
		st.watermark++
	}
}

// State reports the current watermark and pending-set size for an address.
// Callers use it to observe watermark progress before retrying an
// OutOfWindow submission.
func (s *Sequencer) State(addr common.Address) (watermark uint64, pending int) {
	st := s.account(addr)

	st.mu.Lock()
	defer st.mu.Unlock()

	return st.watermark, len(st.pending)
}

// Window returns the configured window bound.
func (s *Sequencer) Window() uint64 {
	return s.window
}

func (s *Sequencer) account(addr common.Address) *accountState {
	s.mu.RLock()
	st, ok := s.accounts[addr]
	s.mu.RUnlock()

	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.accounts[addr]; ok {
		return st
	}

	st = &accountState{pending: make(map[uint64]bool)}
	s.accounts[addr] = st

	return st
}
