package state

import (
	"context"
	"errors"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/ledgerworks/powchain/foundation/blockchain/pow"
)

// ErrChainChanged is returned when the chain moved on while a proof was
// being searched for, making the proof useless.
var ErrChainChanged = errors.New("chain changed while mining")

// =============================================================================

// MineNewBlock solves the proof of work puzzle for the latest block, credits
// the mining reward and seals a new block. The search runs without holding
// the lock so it can be cancelled through ctx at any time without touching
// the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	lastBlock := s.LatestBlock()
	lastHash := lastBlock.Hash()

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]", lastBlock.Index)

	proof, err := pow.Solve(ctx, lastBlock.Proof, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The proof only works against the block it was solved for.
	if hash := s.chain[len(s.chain)-1].Hash(); hash != lastHash {
		s.evHandler("state: MineNewBlock: MINING: chain changed: exp[%s]: got[%s]", lastHash, hash)
		return database.Block{}, ErrChainChanged
	}

	s.evHandler("state: MineNewBlock: MINING: apply mining reward")

	s.mempool.Add(database.NewTx(s.genesis.RewardSender, s.nodeID, s.genesis.MiningReward))

	return s.sealBlock(proof, ""), nil
}
