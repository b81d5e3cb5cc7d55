package state

import (
	"context"
	"errors"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches limits the number of peers asked for their chain
// at the same time.
const maxConcurrentFetches = 8

// ErrEmptyChain is returned if the local chain is found empty, which means
// the node was not constructed through New.
var ErrEmptyChain = errors.New("local chain is empty")

// =============================================================================

// ResolveConflicts asks every known peer for its chain and replaces the local
// chain with the longest valid one, if it is strictly longer than what we
// have. Peers that fail to answer or send an invalid chain are skipped. The
// returned bool reports whether the local chain was replaced.
func (s *State) ResolveConflicts(ctx context.Context) (bool, error) {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	s.mu.Lock()
	maxLength := int64(len(s.chain))
	s.mu.Unlock()

	if maxLength == 0 {
		return false, ErrEmptyChain
	}

	peers := s.RetrieveKnownPeers()

	// Fetch all the chains concurrently. A failure only means that peer
	// contributes no candidate, so the G's never return an error.
	chains := make([]*database.ChainData, len(peers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, pr := range peers {
		g.Go(func() error {
			chainData, err := s.fetcher.FetchChain(gctx, pr)
			if err != nil {
				s.evHandler("state: ResolveConflicts: FetchChain: %s: WARNING: %s", pr, err)
				return nil
			}

			s.evHandler("state: ResolveConflicts: FetchChain: %s: length[%d]", pr, chainData.Length)
			chains[i] = &chainData
			return nil
		})
	}
	g.Wait()

	// Peers are considered in ascending host order so the outcome is
	// reproducible. Only a strictly longer valid chain becomes the candidate.
	var candidate []database.Block
	for i, pr := range peers {
		chainData := chains[i]
		if chainData == nil {
			continue
		}

		if chainData.Length <= maxLength {
			s.evHandler("state: ResolveConflicts: %s: not longer: length[%d]: max[%d]", pr, chainData.Length, maxLength)
			continue
		}

		if int64(len(chainData.Chain)) != chainData.Length {
			s.evHandler("state: ResolveConflicts: %s: length mismatch: reported[%d]: actual[%d]", pr, chainData.Length, len(chainData.Chain))
			continue
		}

		if err := database.ValidateChain(chainData.Chain, s.evHandler); err != nil {
			s.evHandler("state: ResolveConflicts: %s: invalid chain: %s", pr, err)
			continue
		}

		maxLength = chainData.Length
		candidate = chainData.Chain
	}

	if candidate == nil {
		return false, nil
	}

	return s.ReplaceChain(candidate), nil
}

// =============================================================================

// ReplaceChain swaps the local chain for the candidate when the candidate is
// longer. If the local chain grew to the candidate's length while the peers
// were being asked, the local chain is kept. Mining in flight is only told
// to stop when the chain was actually replaced, since only then is its
// proof for the wrong block.
func (s *State) ReplaceChain(candidate []database.Block) bool {
	replaced := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		if len(candidate) <= len(s.chain) {
			s.evHandler("state: ReplaceChain: local chain caught up: local[%d]: candidate[%d]", len(s.chain), len(candidate))
			return false
		}

		s.chain = database.Copy(candidate)
		s.evHandler("state: ReplaceChain: chain replaced: length[%d]: latest[%s]", len(s.chain), s.chain[len(s.chain)-1].Hash())

		return true
	}()

	if replaced {
		s.signalCancelMining()
	}

	return replaced
}
