package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ledgerworks/powchain/foundation/blockchain/state"
)

// miningOperations waits for a start signal and mines one block per signal
// until the worker is shut down.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines a block holding the pending transactions. The
// search stops early on a cancel signal or shutdown, leaving the chain and
// the pending pool as they were.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	pending := w.state.QueryMempoolLength()
	if pending == 0 {
		w.evHandler("worker: runMiningOperation: MINING: nothing pending")
		return
	}

	// Transactions that arrived during the search, or that are still pending
	// because the search was abandoned, need another round.
	defer func() {
		pending := w.state.QueryMempoolLength()
		if pending > 0 && !w.isShutdown() {
			w.evHandler("worker: runMiningOperation: MINING: still pending[%d]: go again", pending)
			w.SignalStartMining()
		}
	}()

	// A cancel signal sent while no search was running is stale.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: dropped stale cancel")
	default:
	}

	// Shutdown cancels w.ctx which stops the search as well.
	ctx, cancel := context.WithCancel(w.ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	// Turns a cancel signal into a cancelled search.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// Runs the search. Finishing, either way, releases the G above.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		start := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		took := time.Since(start)

		switch {
		case err == nil:
			w.evHandler("worker: runMiningOperation: MINING: SOLVED: blk[%d]: hash[%s]: took[%v]", block.Index, block.Hash(), took)
		case errors.Is(err, state.ErrChainChanged):
			w.evHandler("worker: runMiningOperation: MINING: proof is stale, the chain moved on: took[%v]", took)
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete: took[%v]", took)
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
	}()

	wg.Wait()
}
